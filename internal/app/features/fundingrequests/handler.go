// internal/app/features/fundingrequests/handler.go
package fundingrequests

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/fundingdesk/internal/app/policy/fundingpolicy"
	fundingrequeststore "github.com/dalemusser/fundingdesk/internal/app/store/fundingrequests"
	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/auditlog"
	"github.com/dalemusser/fundingdesk/internal/app/system/filestore"
	"github.com/dalemusser/fundingdesk/internal/app/system/metrics"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Records is the funding request persistence the handlers need.
// *fundingrequeststore.Store satisfies it.
type Records interface {
	Create(ctx context.Context, rec models.FundingRequest) (models.FundingRequest, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.FundingRequest, error)
	Save(ctx context.Context, rec *models.FundingRequest) error
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
}

// Access decides what an actor may do with a record.
// *fundingpolicy.Engine satisfies it.
type Access interface {
	Evaluate(ctx context.Context, a fundingpolicy.Actor, rec *models.FundingRequest) (fundingpolicy.Permissions, error)
}

// Downloads opens stored documents for streaming.
// *filestore.Store satisfies it.
type Downloads interface {
	Open(ref string) (*filestore.Download, error)
}

type Handler struct {
	Records     Records
	Access      Access
	Linkage     fundingpolicy.LinkageFinder
	Attachments *attachments.Manager
	Files       Downloads
	AuditLog    *auditlog.Logger
	Log         *zap.Logger

	// MaxFileBytes caps a single uploaded file while it is read from the
	// request.
	MaxFileBytes int64
}

func NewHandler(records Records, access Access, linkage fundingpolicy.LinkageFinder, files *filestore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Records:     records,
		Access:      access,
		Linkage:     linkage,
		Attachments: attachments.NewManager(files, logger),
		Files:       files,
		AuditLog:    audit,
		Log:         logger,

		MaxFileBytes: filestore.MaxUploadBytes,
	}
}

// action names a permission check, used in audit entries.
type action string

const (
	actionView             action = "view"
	actionEdit             action = "edit"
	actionDelete           action = "delete"
	actionDeleteAttachment action = "delete_attachment"
)

func (a action) allowed(p fundingpolicy.Permissions) bool {
	switch a {
	case actionView:
		return p.CanView
	case actionEdit:
		return p.CanEdit
	case actionDelete:
		return p.CanDelete
	case actionDeleteAttachment:
		return p.CanDeleteAttachment
	}
	return false
}

// loaded is a record together with the actor and their permissions on it.
type loaded struct {
	actor fundingpolicy.Actor
	rec   *models.FundingRequest
	perms fundingpolicy.Permissions
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperr.Write(w, r, h.Log, err)
}

// actor returns the signed-in actor or writes 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (fundingpolicy.Actor, bool) {
	a, ok := fundingpolicy.ActorFromRequest(r)
	if !ok {
		h.fail(w, r, apperr.New(apperr.Unauthorized, "Sign in required."))
		return fundingpolicy.Actor{}, false
	}
	return a, true
}

// find loads the record named by the {id} URL parameter.
func (h *Handler) find(ctx context.Context, r *http.Request) (*models.FundingRequest, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "Funding request not found.")
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "load funding request")
	defer cancel()

	rec, err := h.Records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, fundingrequeststore.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "Funding request not found.")
		}
		return nil, apperr.Wrap(apperr.Internal, "load funding request", err)
	}
	return rec, nil
}

// load authenticates, loads the record and checks act. On any failure it
// writes the error response and returns false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, act action) (loaded, bool) {
	a, ok := h.actor(w, r)
	if !ok {
		return loaded{}, false
	}

	rec, err := h.find(r.Context(), r)
	if err != nil {
		h.fail(w, r, err)
		return loaded{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "evaluate permissions")
	defer cancel()

	perms, err := h.Access.Evaluate(ctx, a, rec)
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.Internal, "evaluate permissions", err))
		return loaded{}, false
	}
	if !act.allowed(perms) {
		h.AuditLog.AccessDenied(r.Context(), r, a.ID, rec.ID, string(act))
		metrics.AccessDenied(string(act))
		h.fail(w, r, apperr.New(apperr.Forbidden, "You do not have permission to "+deniedVerb(act)+" this funding request."))
		return loaded{}, false
	}

	return loaded{actor: a, rec: rec, perms: perms}, true
}

func deniedVerb(a action) string {
	switch a {
	case actionEdit:
		return "edit"
	case actionDelete:
		return "delete"
	case actionDeleteAttachment:
		return "delete attachments of"
	default:
		return "view"
	}
}

// save persists rec after an attachment or field change.
func (h *Handler) save(ctx context.Context, rec *models.FundingRequest) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), h.Log, "save funding request")
	defer cancel()

	if err := h.Records.Save(ctx, rec); err != nil {
		if errors.Is(err, fundingrequeststore.ErrNotFound) {
			return apperr.New(apperr.NotFound, "Funding request not found.")
		}
		return apperr.Wrap(apperr.Internal, "save funding request", err)
	}
	return nil
}
