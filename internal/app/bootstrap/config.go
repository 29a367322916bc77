// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the funding desk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, upload_root, etc.
//   - Environment variables: FUNDINGDESK_MONGO_URI, FUNDINGDESK_UPLOAD_ROOT, etc.
//   - Command-line flags: --mongo_uri, --upload_root, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fundingdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "fundingdesk-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 8h, 24h)"},

	// Document storage
	{Name: "upload_root", Default: "./uploads", Desc: "Directory new attachments are written to"},
	{Name: "legacy_upload_root", Default: "./legacy-uploads", Desc: "Parent directory of attachments stored by older deployments"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_records", Default: "all", Desc: "Record and attachment event logging: 'all', 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "timeout_medium", Default: "15s", Desc: "Timeout for multi-step database operations"},
	{Name: "timeout_upload", Default: "10m", Desc: "Timeout for a complete attachment upload"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of an existing account to promote to admin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, FUNDINGDESK_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FUNDINGDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		UploadRoot:       appValues.String("upload_root"),
		LegacyUploadRoot: appValues.String("legacy_upload_root"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogRecords: appValues.String("audit_log_records"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 15*time.Second),
		TimeoutUpload: appValues.Duration("timeout_upload", 10*time.Minute),

		AdminEmail: appValues.String("admin_email"),
	}

	if appCfg.UploadRoot, err = absRoot(appCfg.UploadRoot); err != nil {
		return nil, AppConfig{}, fmt.Errorf("upload_root: %w", err)
	}
	if appCfg.LegacyUploadRoot, err = absRoot(appCfg.LegacyUploadRoot); err != nil {
		return nil, AppConfig{}, fmt.Errorf("legacy_upload_root: %w", err)
	}

	return coreCfg, appCfg, nil
}

// absRoot makes a configured root absolute. Blank stays blank so that
// ValidateConfig can report it.
func absRoot(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.UploadRoot == "" || appCfg.LegacyUploadRoot == "" {
		return fmt.Errorf("upload_root and legacy_upload_root must both be set")
	}
	if filepath.Clean(appCfg.UploadRoot) == filepath.Clean(appCfg.LegacyUploadRoot) {
		return fmt.Errorf("upload_root and legacy_upload_root must differ (both %q)", appCfg.UploadRoot)
	}

	for name, mode := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_records": appCfg.AuditLogRecords,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, mode)
		}
	}

	return nil
}
