package fundingrequests

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeAssignment handles GET .../attachments/assignment and
// .../attachments/assignment/{index}. Without an index (path or ?index=)
// the first assignment document is served.
func (h *Handler) ServeAssignment(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	if raw == "" {
		raw = r.URL.Query().Get("index")
	}
	h.serveDocument(w, r, attachments.Assignment, raw)
}

// ServeOther handles GET .../attachments/other/{index}.
func (h *Handler) ServeOther(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, attachments.Other, chi.URLParam(r, "index"))
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, kind attachments.Kind, rawIndex string) {
	l, ok := h.load(w, r, actionView)
	if !ok {
		return
	}

	index := 0
	if rawIndex != "" {
		i, err := attachments.ParseIndex(rawIndex)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		index = i
	}

	set := attachments.Of(l.rec, kind)
	if set.Len() == 0 {
		h.fail(w, r, apperr.New(apperr.NotFound, fmt.Sprintf("No %s document is attached.", kind)))
		return
	}
	ref, err := set.At(index)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.Files.Open(ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer d.File.Close()

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, d.File)
	if err != nil {
		// Usually a client disconnect; the response is already committed.
		h.Log.Debug("download interrupted",
			zap.String("request_id", l.rec.ID.Hex()),
			zap.String("kind", string(kind)),
			zap.Int64("written", n),
			zap.Error(err))
		return
	}
	metrics.Download(string(kind), n)
}
