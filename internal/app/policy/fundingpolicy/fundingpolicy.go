// Package fundingpolicy decides who may view, edit and delete a funding
// request and its attachments.
//
// Authorization rules:
//   - admin: everything
//   - new: nothing
//   - owner (ownerId, else legacy userId): view always; edit, delete and
//     delete attachments only while the request is Submitted
//   - fh_cem in the same organization as the request: view always; edit
//     and delete attachments only while Submitted; never delete the request
//
// Organization match is the same fhCemId, or, as a fallback for records
// and accounts from before FH/CEM entities, the same non-empty free-text
// FH/CEM name compared trimmed and case-insensitively.
//
// Editing stops at Submitted so nothing changes once staff verification
// has begun. Only the owner may delete the whole request.
package fundingpolicy

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/system/authz"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Actor is the authenticated account a decision is made for.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// ActorFromRequest returns the actor for the signed-in user, if any.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: uid, Role: role}, true
}

func (a Actor) role() string {
	return strings.ToLower(strings.TrimSpace(a.Role))
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.role() == models.RoleAdmin }

// IsFHCEM reports whether the actor has the FH/CEM role.
func (a Actor) IsFHCEM() bool { return a.role() == models.RoleFHCEM }

// IsNew reports whether the actor is an unapproved account.
func (a Actor) IsNew() bool { return a.role() == models.RoleNew }

// Permissions is the full decision for one actor and one record.
type Permissions struct {
	CanView             bool `json:"canView"`
	CanEdit             bool `json:"canEdit"`
	CanDelete           bool `json:"canDelete"`
	CanDeleteAttachment bool `json:"canDeleteAttachment"`
}

// IsOwner reports whether the actor submitted the record.
func IsOwner(a Actor, rec *models.FundingRequest) bool {
	owner := rec.Owner()
	return !owner.IsZero() && owner == a.ID
}

// IsSameOrganization reports whether the actor's organization link (as
// read from the users collection) matches the record's.
func IsSameOrganization(link models.OrgLinkage, rec *models.FundingRequest) bool {
	if link.FhCemID != nil && !link.FhCemID.IsZero() && rec.FhCemID != nil && *link.FhCemID == *rec.FhCemID {
		return true
	}
	actorName := strings.TrimSpace(link.FhName)
	recName := strings.TrimSpace(rec.FhName)
	return actorName != "" && recName != "" && strings.EqualFold(actorName, recName)
}

// Decide computes all permissions given the actor's organization link.
// sameOrg is only consulted for FH/CEM actors who do not own the record.
func Decide(a Actor, sameOrg bool, rec *models.FundingRequest) Permissions {
	switch {
	case a.IsAdmin():
		return Permissions{CanView: true, CanEdit: true, CanDelete: true, CanDeleteAttachment: true}
	case a.IsNew():
		return Permissions{}
	}

	owner := IsOwner(a, rec)
	orgMate := a.IsFHCEM() && sameOrg
	submitted := rec.IsSubmitted()

	return Permissions{
		CanView:             owner || orgMate,
		CanEdit:             submitted && (owner || orgMate),
		CanDelete:           submitted && owner,
		CanDeleteAttachment: submitted && (owner || orgMate),
	}
}

// LinkageFinder looks up an account's organization link.
type LinkageFinder interface {
	FindOrgLinkage(ctx context.Context, userID primitive.ObjectID) (models.OrgLinkage, error)
}

// Engine evaluates permissions, reading the actor's organization link only
// when the decision depends on it.
type Engine struct {
	Linkage LinkageFinder
	Log     *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(linkage LinkageFinder, logger *zap.Logger) *Engine {
	return &Engine{Linkage: linkage, Log: logger}
}

// needsLinkage reports whether the organization match can change the outcome.
func needsLinkage(a Actor, rec *models.FundingRequest) bool {
	return a.IsFHCEM() && !IsOwner(a, rec)
}

// IsSameOrganization looks up the actor's link and compares it to rec.
func (e *Engine) IsSameOrganization(ctx context.Context, a Actor, rec *models.FundingRequest) (bool, error) {
	if e.Linkage == nil {
		return false, nil
	}
	link, err := e.Linkage.FindOrgLinkage(ctx, a.ID)
	if err != nil {
		if e.Log != nil {
			e.Log.Error("org linkage lookup failed",
				zap.String("actor_id", a.ID.Hex()),
				zap.Error(err))
		}
		return false, err
	}
	return IsSameOrganization(link, rec), nil
}

// Evaluate returns every permission for a on rec. A failed linkage lookup
// fails closed: all permissions false plus the error.
func (e *Engine) Evaluate(ctx context.Context, a Actor, rec *models.FundingRequest) (Permissions, error) {
	sameOrg := false
	if needsLinkage(a, rec) {
		ok, err := e.IsSameOrganization(ctx, a, rec)
		if err != nil {
			return Permissions{}, err
		}
		sameOrg = ok
	}
	return Decide(a, sameOrg, rec), nil
}

// CanView reports whether a may read rec and download its attachments.
func (e *Engine) CanView(ctx context.Context, a Actor, rec *models.FundingRequest) (bool, error) {
	p, err := e.Evaluate(ctx, a, rec)
	return p.CanView, err
}

// CanEdit reports whether a may change rec's fields or add attachments.
func (e *Engine) CanEdit(ctx context.Context, a Actor, rec *models.FundingRequest) (bool, error) {
	p, err := e.Evaluate(ctx, a, rec)
	return p.CanEdit, err
}

// CanDelete reports whether a may delete rec.
func (e *Engine) CanDelete(ctx context.Context, a Actor, rec *models.FundingRequest) (bool, error) {
	if !a.IsAdmin() && !IsOwner(a, rec) {
		return false, nil
	}
	p, err := e.Evaluate(ctx, a, rec)
	return p.CanDelete, err
}

// CanDeleteAttachment reports whether a may delete one of rec's attachments.
func (e *Engine) CanDeleteAttachment(ctx context.Context, a Actor, rec *models.FundingRequest) (bool, error) {
	p, err := e.Evaluate(ctx, a, rec)
	return p.CanDeleteAttachment, err
}
