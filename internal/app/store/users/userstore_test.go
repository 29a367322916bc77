package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/fundingdesk/internal/app/store/users"
	"github.com/dalemusser/fundingdesk/internal/app/system/auth"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/dalemusser/fundingdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

func TestStore_Create_FHCEM(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Pat   Smith ",
		Email:    "Pat@Example.com",
		Role:     "FH_CEM",
		FhName:   "Smith Funeral Home",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Pat Smith" {
		t.Errorf("FullName: got %q, want %q", created.FullName, "Pat Smith")
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}
	if created.Email != "pat@example.com" {
		t.Errorf("Email: got %q, want %q", created.Email, "pat@example.com")
	}
	if created.Role != models.RoleFHCEM {
		t.Errorf("Role: got %q, want %q", created.Role, models.RoleFHCEM)
	}
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{FullName: "X", Email: "x@example.com", Role: "member"})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "One", Email: "dup@example.com", Role: "admin"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "Two", Email: "DUP@example.com", Role: "admin"})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{FullName: "Lee", Email: "lee@example.com", Role: "admin"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByEmail(ctx, "  LEE@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID: got %s, want %s", found.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := userstore.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestStore_FindOrgLinkage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateFhCem(ctx, "Smith Funeral Home")

	byEntity := fixtures.CreateUser(ctx, models.User{FullName: "Ent", Email: "ent@example.com", Role: models.RoleFHCEM, FhCemID: &org.ID})
	link, err := store.FindOrgLinkage(ctx, byEntity.ID)
	if err != nil {
		t.Fatalf("FindOrgLinkage failed: %v", err)
	}
	if link.FhCemID == nil || *link.FhCemID != org.ID {
		t.Errorf("FhCemID: got %v, want %s", link.FhCemID, org.ID.Hex())
	}
	if link.FhName != "Smith Funeral Home" {
		t.Errorf("FhName: got %q, want entity name", link.FhName)
	}

	byName := fixtures.CreateUser(ctx, models.User{FullName: "Name", Email: "name@example.com", Role: models.RoleFHCEM, FhName: "Jones Cemetery"})
	link, err = store.FindOrgLinkage(ctx, byName.ID)
	if err != nil {
		t.Fatalf("FindOrgLinkage failed: %v", err)
	}
	if link.FhCemID != nil || link.FhName != "Jones Cemetery" {
		t.Errorf("got %+v", link)
	}

	link, err = store.FindOrgLinkage(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("missing user: %v", err)
	}
	if link != (models.OrgLinkage{}) {
		t.Errorf("missing user: expected empty linkage, got %+v", link)
	}
}

func TestFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active := fixtures.CreateUser(ctx, models.User{FullName: "Active", Email: "a@example.com", Role: models.RoleAdmin})
	disabled := fixtures.CreateUser(ctx, models.User{FullName: "Off", Email: "off@example.com", Role: models.RoleAdmin, Status: "disabled"})

	su, err := fetcher.FetchSessionUser(ctx, active.ID)
	if err != nil {
		t.Fatalf("FetchSessionUser failed: %v", err)
	}
	if su.ID != active.ID.Hex() || su.Role != models.RoleAdmin || su.Email != "a@example.com" {
		t.Errorf("got %+v", su)
	}

	if _, err := fetcher.FetchSessionUser(ctx, disabled.ID); !errors.Is(err, auth.ErrUserGone) {
		t.Errorf("disabled: expected ErrUserGone, got %v", err)
	}
	if _, err := fetcher.FetchSessionUser(ctx, primitive.NewObjectID()); !errors.Is(err, auth.ErrUserGone) {
		t.Errorf("missing: expected ErrUserGone, got %v", err)
	}
}
