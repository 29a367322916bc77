// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	fundingrequestsfeature "github.com/dalemusser/fundingdesk/internal/app/features/fundingrequests"
	healthfeature "github.com/dalemusser/fundingdesk/internal/app/features/health"
	loginfeature "github.com/dalemusser/fundingdesk/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fundingdesk/internal/app/features/logout"
	"github.com/dalemusser/fundingdesk/internal/app/policy/fundingpolicy"
	"github.com/dalemusser/fundingdesk/internal/app/store/audit"
	fundingrequeststore "github.com/dalemusser/fundingdesk/internal/app/store/fundingrequests"
	userstore "github.com/dalemusser/fundingdesk/internal/app/store/users"
	"github.com/dalemusser/fundingdesk/internal/app/system/auditlog"
	"github.com/dalemusser/fundingdesk/internal/app/system/auth"
	"github.com/dalemusser/fundingdesk/internal/app/system/filestore"
	"github.com/dalemusser/fundingdesk/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The funding desk serves a JSON API:
// session login and logout, the funding request routes under
// /api/funding-requests, /health and Prometheus /metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the account on every request so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Records: appCfg.AuditLogRecords,
	})

	users := userstore.New(deps.MongoDatabase)
	files := filestore.New(appCfg.UploadRoot, appCfg.LegacyUploadRoot, logger)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.UploadRoot, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Get("/api/session", loginHandler.ServeSession)

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Funding requests and their attachments
	frHandler := fundingrequestsfeature.NewHandler(
		fundingrequeststore.New(deps.MongoDatabase),
		fundingpolicy.NewEngine(users, logger),
		users,
		files,
		auditLog,
		logger,
	)
	r.Mount("/api/funding-requests", fundingrequestsfeature.Routes(frHandler, sessionMgr))

	return r, nil
}
