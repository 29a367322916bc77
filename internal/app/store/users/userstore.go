package userstore

import (
	"context"
	"errors"
	"time"

	fhcemstore "github.com/dalemusser/fundingdesk/internal/app/store/fhcems"
	"github.com/dalemusser/fundingdesk/internal/app/system/normalize"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c    *mongo.Collection
	orgs *fhcemstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), orgs: fhcemstore.New(db)}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"fh_cem"|"new"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	u.FhName = normalize.Name(u.FhName)

	switch u.Role {
	case models.RoleAdmin, models.RoleFHCEM, models.RoleNew:
	default:
		return models.User{}, errBadRole
	}
	switch u.Status {
	case "active", "disabled":
	default:
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// HashPassword returns the bcrypt hash stored in User.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FindOrgLinkage returns the organization link of userID. A user without
// a free-text name but with an entity link gets the entity's name, so the
// name fallback still works for records that only carry fhName. A missing
// user yields an empty linkage, which matches no organization.
func (s *Store) FindOrgLinkage(ctx context.Context, userID primitive.ObjectID) (models.OrgLinkage, error) {
	var link models.OrgLinkage
	proj := options.FindOne().SetProjection(bson.M{"fh_cem_id": 1, "fh_name": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": userID}, proj).Decode(&link); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OrgLinkage{}, nil
		}
		return models.OrgLinkage{}, err
	}

	if link.FhName == "" && link.FhCemID != nil {
		name, err := s.orgs.Name(ctx, *link.FhCemID)
		switch {
		case err == nil:
			link.FhName = name
		case !errors.Is(err, fhcemstore.ErrNotFound):
			return models.OrgLinkage{}, err
		}
	}
	return link, nil
}
