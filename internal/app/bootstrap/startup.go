// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/normalize"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Upload: appCfg.TimeoutUpload,
	})

	if err := ensureUploadRoot(appCfg.UploadRoot); err != nil {
		return err
	}
	if fi, err := os.Stat(appCfg.LegacyUploadRoot); err != nil || !fi.IsDir() {
		logger.Warn("legacy upload root is not a readable directory; legacy documents will not resolve",
			zap.String("root", appCfg.LegacyUploadRoot),
			zap.Error(err))
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

func ensureUploadRoot(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create upload root %q: %w", root, err)
	}
	return nil
}

// ensureAdmin promotes the account with email to admin. An unknown email
// is logged and skipped; accounts are never created here.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	users := deps.MongoDatabase.Collection("users")

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	err := users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		logger.Warn("admin_email does not match any account", zap.String("email", email))
		return nil
	case err != nil:
		return fmt.Errorf("look up admin account: %w", err)
	}

	if normalize.Role(u.Role) == models.RoleAdmin && normalize.Status(u.Status) == "active" {
		return nil
	}

	_, err = users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"role":       models.RoleAdmin,
		"status":     "active",
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("promote admin account: %w", err)
	}
	logger.Info("promoted account to admin",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
