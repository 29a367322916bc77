package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is the database liveness check. *mongo.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB         Pinger
	UploadRoot string
	Log        *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, the
// primary upload root and logger.
func NewHandler(client *mongo.Client, uploadRoot string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         client,
		UploadRoot: uploadRoot,
		Log:        logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "storage":"ok" }
//
// On failure: 503 with the failing part marked and a message.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Storage:  "ok",
	}

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
	}

	if fi, err := os.Stat(h.UploadRoot); err != nil || !fi.IsDir() {
		h.Log.Error("health-check: upload root unavailable",
			zap.String("root", h.UploadRoot),
			zap.Error(err))
		resp.Status = "error"
		resp.Storage = "unavailable"
		if resp.Message == "" {
			resp.Message = "Upload storage unavailable"
		}
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
