// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/store/audit"
	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/auditlog"
	"github.com/dalemusser/fundingdesk/internal/app/system/auth"
	"github.com/dalemusser/fundingdesk/internal/app/system/normalize"
	"github.com/dalemusser/fundingdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Users looks accounts up by email. *userstore.Store satisfies it.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Users      Users
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users Users, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    ratelimit.NewLoginLimiter(),
		Log:        logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse describes the signed-in account.
type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// badCredentials is returned for both unknown accounts and wrong
// passwords so responses do not reveal which emails exist.
var badCredentials = apperr.New(apperr.Unauthorized, "Invalid email or password.")

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in credentials
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.fail(w, r, apperr.Wrap(apperr.BadRequest, "Request body must be {\"email\",\"password\"}.", err))
		return
	}

	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		h.fail(w, r, apperr.New(apperr.BadRequest, "Email and password are required."))
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("email", email),
				zap.String("ip", ratelimit.ClientIP(r)))
			h.fail(w, r, apperr.New(apperr.RateLimited, msg))
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedUserNotFound, nil, email)
		h.fail(w, r, badCredentials)
		return
	case err != nil:
		h.fail(w, r, apperr.Wrap(apperr.Internal, "look up user", err))
		return
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedWrongPassword, &u.ID, email)
		h.fail(w, r, badCredentials)
		return
	}

	if normalize.Status(u.Status) == "disabled" {
		h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedUserDisabled, &u.ID, email)
		h.fail(w, r, apperr.New(apperr.Forbidden, "Your account is disabled. Please contact an administrator."))
		return
	}

	if err := h.SessionMgr.Login(w, r, u.ID); err != nil {
		h.fail(w, r, apperr.Wrap(apperr.Internal, "save session", err))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, email)
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/session                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSession reports the signed-in account, or 401.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.fail(w, r, apperr.New(apperr.Unauthorized, "Sign in required."))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  strings.ToLower(u.Role),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperr.Write(w, r, h.Log, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
