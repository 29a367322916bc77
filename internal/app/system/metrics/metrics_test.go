package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/records/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/records/{id}", "418")
	before := promtest.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/records/"+id, nil))
	}

	if got := promtest.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests counted = %v, want 3", got)
	}
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/ok", "200")
	before := promtest.ToFloat64(counter)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))

	if got := promtest.ToFloat64(counter) - before; got != 1 {
		t.Errorf("requests counted = %v, want 1", got)
	}
}

func TestDomainCounters(t *testing.T) {
	added := attachmentsAdded.WithLabelValues("other")
	removed := attachmentsRemoved.WithLabelValues("other")
	served := downloadsTotal.WithLabelValues("assignment")
	denied := accessDenied.WithLabelValues("delete")

	a0, r0, s0, b0, d0 := promtest.ToFloat64(added), promtest.ToFloat64(removed),
		promtest.ToFloat64(served), promtest.ToFloat64(downloadBytesTotal), promtest.ToFloat64(denied)

	AttachmentsAdded("other", 3)
	AttachmentsAdded("other", 0)
	AttachmentRemoved("other")
	Download("assignment", 2048)
	AccessDenied("delete")

	if got := promtest.ToFloat64(added) - a0; got != 3 {
		t.Errorf("added = %v, want 3", got)
	}
	if got := promtest.ToFloat64(removed) - r0; got != 1 {
		t.Errorf("removed = %v, want 1", got)
	}
	if got := promtest.ToFloat64(served) - s0; got != 1 {
		t.Errorf("downloads = %v, want 1", got)
	}
	if got := promtest.ToFloat64(downloadBytesTotal) - b0; got != 2048 {
		t.Errorf("download bytes = %v, want 2048", got)
	}
	if got := promtest.ToFloat64(denied) - d0; got != 1 {
		t.Errorf("denied = %v, want 1", got)
	}
}

func TestHandler_ExposesFamilies(t *testing.T) {
	AttachmentsAdded("assignment", 1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fundingdesk_attachments_added_total") {
		t.Error("expected fundingdesk_attachments_added_total in exposition")
	}
}
