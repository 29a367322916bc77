// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, logging, CORS); everything
// specific to the funding desk lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: fundingdesk-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Document storage. Both roots are absolute after LoadConfig.
	UploadRoot       string // New uploads are written here
	LegacyUploadRoot string // Parent directory of older uploads, read-only fallback

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogRecords string

	// Timeouts for database and upload work
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutUpload time.Duration

	// AdminEmail names an existing account promoted to admin at startup.
	AdminEmail string
}
