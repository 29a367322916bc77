// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// Validators run at the "moderate" level: documents written before the
// validator existed are not rejected on unrelated updates.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Info("validator ensured", zap.String("collection", coll))
	}

	ensure("users", usersSchema())
	ensure("fh_cems", fhCemsSchema())
	ensure("funding_requests", fundingRequestsSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure name exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	if exists, err := collectionExists(ctx, db, name); err == nil && exists {
		return nil
	}
	// Listing failed or the collection is new; a concurrent create is fine.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func commandErr(err error, codes ...int32) (mongo.CommandError, bool) {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return ce, false
	}
	for _, c := range codes {
		if ce.Code == c {
			return ce, true
		}
	}
	return ce, false
}

func mentions(err error, phrases ...string) bool {
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := commandErr(err, 48); ok {
		return true
	}
	return mentions(err, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := commandErr(err, 59); ok {
		return true
	}
	return mentions(err, "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := commandErr(err, 115); ok {
		return true
	}
	return mentions(err, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "role", "status"},
			"properties": bson.M{
				"email":     nonBlank,
				"full_name": bson.M{"bsonType": "string"},
				"role":      bson.M{"enum": bson.A{models.RoleAdmin, models.RoleFHCEM, models.RoleNew}},
				"status":    bson.M{"enum": bson.A{"active", "disabled"}},
				"fh_cem_id": bson.M{"bsonType": "objectId"},
				"fh_name":   bson.M{"bsonType": "string"},
			},
		},
	}
}

func fhCemsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "kind", "status"},
			"properties": bson.M{
				"name":    nonBlank,
				"name_ci": nonBlank,
				"kind":    bson.M{"enum": bson.A{models.FhCemFuneralHome, models.FhCemCemetery}},
				"status":  bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func fundingRequestsSchema() bson.M {
	statuses := make(bson.A, 0, len(models.FundingStatuses))
	for _, s := range models.FundingStatuses {
		statuses = append(statuses, s)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"status"},
			"properties": bson.M{
				"status":               bson.M{"enum": statuses},
				"ownerId":              bson.M{"bsonType": "objectId"},
				"userId":               bson.M{"bsonType": "objectId"},
				"fhCemId":              bson.M{"bsonType": "objectId"},
				"assignmentUploadPath": bson.M{"bsonType": "string"},
				"assignmentUploadPaths": bson.M{
					"bsonType": bson.A{"array", "null"},
					"maxItems": attachments.MaxAssignment,
					"items":    bson.M{"bsonType": "string"},
				},
				"otherUploadPaths": bson.M{
					"bsonType": bson.A{"array", "null"},
					"maxItems": attachments.MaxOther,
					"items":    bson.M{"bsonType": "string"},
				},
			},
		},
	}
}
