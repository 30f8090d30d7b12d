// Package invalidation applies publish notifications to the conversion
// caches. Notifications arrive over Redis pub/sub so every instance drops
// the same content item representations and advances its snapshot.
package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

// Kind names what a notification is about
type Kind string

const (
	// KindContent is a content item (re)publish; its Content-level values are dropped
	KindContent Kind = "content"
	// KindContentType is a content type change; its descriptors are reloaded
	KindContentType Kind = "content_type"
	// KindMedia is a media (re)publish; only the snapshot advances
	KindMedia Kind = "media"
)

// Notification is the wire format of a publish notification
type Notification struct {
	Kind        Kind      `json:"kind"`
	ContentID   uuid.UUID `json:"content_id,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	MediaKey    uuid.UUID `json:"media_key,omitempty"`
}

// Validate checks that the notification names what its kind requires
func (n Notification) Validate() error {
	switch n.Kind {
	case KindContent:
		if n.ContentID == uuid.Nil {
			return errors.New("content notification requires content_id")
		}
	case KindContentType:
		if n.ContentType == "" {
			return errors.New("content type notification requires content_type")
		}
	case KindMedia:
		if n.MediaKey == uuid.Nil {
			return errors.New("media notification requires media_key")
		}
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return nil
}

// Invalidator is the part of the conversion service notifications act on
type Invalidator interface {
	InvalidateContent(contentID uuid.UUID)
	InvalidateContentType(contentTypeAlias string)
}

// Advancer replaces the current snapshot
type Advancer interface {
	Advance() *snapshot.Snapshot
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Handler applies notifications to a service and a snapshot manager
type Handler struct {
	service   Invalidator
	snapshots Advancer
	logger    *slog.Logger
}

// NewHandler creates a handler
func NewHandler(service Invalidator, snapshots Advancer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, snapshots: snapshots, logger: logger}
}

// Notify applies a notification in-process. Handler is the Notifier of
// single-instance deployments.
func (h *Handler) Notify(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	switch n.Kind {
	case KindContent:
		h.service.InvalidateContent(n.ContentID)
	case KindContentType:
		h.service.InvalidateContentType(n.ContentType)
	}
	next := h.snapshots.Advance()

	h.logger.InfoContext(ctx, "Applied publish notification",
		"kind", string(n.Kind), "snapshot", next.ID().String())
	return nil
}

// HandleMessage decodes and applies a raw pub/sub payload
func (h *Handler) HandleMessage(ctx context.Context, payload string) error {
	var n Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	return h.Notify(ctx, n)
}
