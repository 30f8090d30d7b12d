// Package api exposes converted property values over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/invalidation"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

// SnapshotProvider returns the snapshot a request reads through
type SnapshotProvider interface {
	Current() *snapshot.Snapshot
}

// ValueResponse is the response body for a converted property value
type ValueResponse struct {
	ContentID  string `json:"content_id"`
	Property   string `json:"property"`
	Preview    bool   `json:"preview"`
	Converter  string `json:"converter"`
	ResultType string `json:"result_type"`
	Snapshot   string `json:"snapshot"`
	Absent     bool   `json:"absent"`
	Value      any    `json:"value"`
}

// HasValueResponse is the response body for a presence check
type HasValueResponse struct {
	ContentID string `json:"content_id"`
	Property  string `json:"property"`
	Preview   bool   `json:"preview"`
	HasValue  bool   `json:"has_value"`
}

// PropertyResponse describes how a property converts
type PropertyResponse struct {
	ContentType string   `json:"content_type"`
	Property    string   `json:"property"`
	EditorAlias string   `json:"editor_alias"`
	Multiple    bool     `json:"multiple"`
	Converter   string   `json:"converter"`
	ResultType  string   `json:"result_type"`
	CacheLevel  string   `json:"cache_level"`
	Config      render.M `json:"configuration,omitempty"`
}

// ErrorResponse is the response body for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler handles HTTP requests for converted values
type Handler struct {
	service   simplevalues.Service
	snapshots SnapshotProvider
	notifier  invalidation.Notifier
	auth      *jwtauth.JWTAuth
	logger    *slog.Logger
}

// Option represents a functional option for configuring the handler
type Option func(*Handler)

// WithNotifier enables the invalidation endpoints
func WithNotifier(n invalidation.Notifier) Option {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithPreviewAuth requires a valid bearer token for preview reads and
// invalidation requests
func WithPreviewAuth(auth *jwtauth.JWTAuth) Option {
	return func(h *Handler) {
		h.auth = auth
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a new handler
func NewHandler(service simplevalues.Service, snapshots SnapshotProvider, options ...Option) *Handler {
	h := &Handler{service: service, snapshots: snapshots}
	for _, option := range options {
		option(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the routes for converted values
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
	}

	r.Get("/contents/{id}/properties/{alias}", h.GetValue)
	r.Get("/contents/{id}/properties/{alias}/has-value", h.HasValue)
	r.Get("/content-types/{type}/properties/{alias}", h.DescribeProperty)

	r.Group(func(r chi.Router) {
		r.Use(h.requireEditor)
		r.Post("/contents/{id}/invalidate", h.InvalidateContent)
		r.Post("/content-types/{type}/invalidate", h.InvalidateContentType)
		r.Post("/media/{key}/invalidate", h.InvalidateMedia)
	})

	return r
}

// GetValue returns the converted value of a property
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	contentID, alias, preview, ok := h.valueParams(w, r)
	if !ok {
		return
	}

	// One request is one composite evaluation
	ctx := simplevalues.WithElementScope(r.Context())
	snap := h.snapshots.Current()

	value, err := h.service.GetConvertedValue(ctx, snap, contentID, alias, preview)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ValueResponse{
		ContentID: contentID.String(),
		Property:  alias,
		Preview:   preview,
		Snapshot:  snap.ID().String(),
		Absent:    simplevalues.IsAbsent(value),
		Value:     value,
	}
	if info, err := h.service.DescribeContentProperty(r.Context(), contentID, alias); err == nil {
		resp.Converter = info.Converter
		resp.ResultType = info.ResultType
	}

	render.JSON(w, r, resp)
}

// HasValue reports whether a property holds a meaningful value
func (h *Handler) HasValue(w http.ResponseWriter, r *http.Request) {
	contentID, alias, preview, ok := h.valueParams(w, r)
	if !ok {
		return
	}

	has, err := h.service.HasValue(simplevalues.WithElementScope(r.Context()), h.snapshots.Current(), contentID, alias, preview)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, HasValueResponse{
		ContentID: contentID.String(),
		Property:  alias,
		Preview:   preview,
		HasValue:  has,
	})
}

// DescribeProperty returns the converter, result type and cache level of a property
func (h *Handler) DescribeProperty(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.DescribeProperty(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "alias"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := PropertyResponse{
		ContentType: info.Descriptor.ContentTypeAlias,
		Property:    info.Descriptor.Alias,
		EditorAlias: info.Descriptor.EditorAlias,
		Multiple:    info.Descriptor.AllowsMultipleValues,
		Converter:   info.Converter,
		ResultType:  info.ResultType,
		CacheLevel:  info.CacheLevel.String(),
	}
	var cfg render.M
	if err := info.Descriptor.ConfigurationAs(&cfg); err == nil {
		resp.Config = cfg
	}

	render.JSON(w, r, resp)
}

// InvalidateContent announces a republished content item
func (h *Handler) InvalidateContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeStatus(w, r, http.StatusBadRequest, "Invalid content ID")
		return
	}
	h.notify(w, r, invalidation.Notification{Kind: invalidation.KindContent, ContentID: id})
}

// InvalidateContentType announces a changed content type
func (h *Handler) InvalidateContentType(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, invalidation.Notification{Kind: invalidation.KindContentType, ContentType: chi.URLParam(r, "type")})
}

// InvalidateMedia announces a republished media item
func (h *Handler) InvalidateMedia(w http.ResponseWriter, r *http.Request) {
	key, err := uuid.Parse(chi.URLParam(r, "key"))
	if err != nil {
		h.writeStatus(w, r, http.StatusBadRequest, "Invalid media key")
		return
	}
	h.notify(w, r, invalidation.Notification{Kind: invalidation.KindMedia, MediaKey: key})
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request, n invalidation.Notification) {
	if h.notifier == nil {
		h.writeStatus(w, r, http.StatusNotImplemented, "Invalidation is not configured")
		return
	}
	if err := h.notifier.Notify(r.Context(), n); err != nil {
		h.logger.Error("Failed to send invalidation", "kind", string(n.Kind), "error", err)
		h.writeStatus(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) valueParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool, bool) {
	contentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeStatus(w, r, http.StatusBadRequest, "Invalid content ID")
		return uuid.Nil, "", false, false
	}

	preview := false
	if v := r.URL.Query().Get("preview"); v != "" {
		preview, err = strconv.ParseBool(v)
		if err != nil {
			h.writeStatus(w, r, http.StatusBadRequest, "Invalid preview flag")
			return uuid.Nil, "", false, false
		}
	}
	if preview && !h.isEditor(r) {
		h.writeStatus(w, r, http.StatusUnauthorized, "Preview requires a valid token")
		return uuid.Nil, "", false, false
	}

	return contentID, chi.URLParam(r, "alias"), preview, true
}

// isEditor reports whether the request carries a verified token. Without
// preview auth configured every request is trusted.
func (h *Handler) isEditor(r *http.Request) bool {
	if h.auth == nil {
		return true
	}
	token, _, err := jwtauth.FromContext(r.Context())
	return err == nil && token != nil
}

func (h *Handler) requireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isEditor(r) {
			h.writeStatus(w, r, http.StatusUnauthorized, "Invalidation requires a valid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *simplevalues.ConfigurationError
	switch {
	case errors.Is(err, simplevalues.ErrContentNotFound),
		errors.Is(err, simplevalues.ErrContentTypeNotFound),
		errors.Is(err, simplevalues.ErrPropertyNotFound):
		h.writeStatus(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &cfgErr):
		h.logger.Error("Content type cannot be served", "content_type", cfgErr.ContentTypeAlias, "error", err)
		h.writeStatus(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("Failed to convert property value", "error", err)
		h.writeStatus(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
