// internal/app/features/fundingrequests/routes.go
package fundingrequests

import (
	"github.com/dalemusser/fundingdesk/internal/app/system/auth"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the funding request API. Every route needs a signed-in
// admin or FH/CEM account; per-record checks happen in the handlers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleFHCEM))

	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeRecord)
		r.Patch("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
		r.With(sm.RequireRole(models.RoleAdmin)).Put("/status", h.HandleStatus)

		r.Post("/attachments", h.HandleUpload)
		r.Delete("/attachments/{kind}/{index}", h.HandleDeleteAttachment)
		r.Get("/attachments/assignment", h.ServeAssignment)
		r.Get("/attachments/assignment/{index}", h.ServeAssignment)
		r.Get("/attachments/other/{index}", h.ServeOther)
	})

	return r
}
