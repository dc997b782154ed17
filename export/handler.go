package export

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cyp0633/openinvite/plan"
)

// PlanSource lists the plans a user created or answered
type PlanSource interface {
	PlansFor(userID string) []plan.Plan
}

// Handler serves calendar subscriptions: GET /<user>.ics returns
// iCalendar and GET /<user>.xml returns xCal.
type Handler struct {
	source  PlanSource
	encoder *Encoder
	logger  *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the handler
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a subscription handler backed by source
func NewHandler(source PlanSource, encoder *Encoder, opts ...HandlerOption) *Handler {
	if encoder == nil {
		encoder = NewEncoder()
	}
	h := &Handler{
		source:  source,
		encoder: encoder,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	var (
		userID      string
		contentType string
		encode      func(io.Writer, []plan.Plan) error
	)
	switch {
	case strings.HasSuffix(name, ".ics"):
		userID = strings.TrimSuffix(name, ".ics")
		contentType = "text/calendar; charset=utf-8"
		encode = h.encoder.EncodeICS
	case strings.HasSuffix(name, ".xml"):
		userID = strings.TrimSuffix(name, ".xml")
		contentType = "application/calendar+xml; charset=utf-8"
		encode = h.encoder.EncodeXCal
	}
	if userID == "" || strings.Contains(userID, "/") {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	h.logger.Info("calendar requested", "user_id", userID, "path", r.URL.Path)

	plans := h.source.PlansFor(userID)
	etag, err := plansETag(plans, contentType)
	if err != nil {
		h.logger.Error("failed to compute etag", "user_id", userID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var buf bytes.Buffer
	if err := encode(&buf, plans); err != nil {
		h.logger.Error("failed to encode calendar", "user_id", userID, "error", err)
		http.Error(w, "Internal Server Error: Failed to encode calendar", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write response", "user_id", userID, "error", err)
	}
}

// plansETag depends on the plans only, so DTSTAMP does not change the tag
func plansETag(plans []plan.Plan, contentType string) (string, error) {
	data, err := json.Marshal(plans)
	if err != nil {
		return "", err
	}
	sum := sha1.New()
	sum.Write([]byte(contentType))
	sum.Write(data)
	return `"` + hex.EncodeToString(sum.Sum(nil)) + `"`, nil
}
