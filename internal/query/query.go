// Package query maps id and list lookups onto Scheduler reads and renders
// the outcome as a status code plus body, independent of any transport.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/me/prodigy/pkg/model"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Reader is the subset of the Scheduler the handler needs.
type Reader interface {
	Get(ctx context.Context, id string) (model.Entry, error)
	List(ctx context.Context) ([]model.Entry, error)
}

// Response is a transport-agnostic reply.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
}

// Handler answers status queries.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

// New creates a Handler reading from r.
func New(r Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: r, logger: logger.With("component", "query")}
}

// Handle returns every entry when id is nil, otherwise the entry with that id.
// An unknown id is a client error (400); any other failure is a 500 whose
// body is the error message.
func (h *Handler) Handle(ctx context.Context, id *string) Response {
	if id == nil {
		entries, err := h.reader.List(ctx)
		if err != nil {
			return h.fail(err)
		}
		if entries == nil {
			entries = []model.Entry{}
		}
		return h.encode(entries)
	}

	e, err := h.reader.Get(ctx, *id)
	if err != nil {
		if model.IsNotFound(err) {
			return Response{
				StatusCode:  http.StatusBadRequest,
				ContentType: ContentTypeText,
				Body:        fmt.Sprintf("Fault id [%s] not found", *id),
			}
		}
		return h.fail(err)
	}
	return h.encode(e)
}

func (h *Handler) encode(v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		return h.fail(fmt.Errorf("encode response: %w", err))
	}
	return Response{StatusCode: http.StatusOK, ContentType: ContentTypeJSON, Body: string(b)}
}

func (h *Handler) fail(err error) Response {
	h.logger.Error("query failed", "error", err)
	return Response{
		StatusCode:  http.StatusInternalServerError,
		ContentType: ContentTypeText,
		Body:        err.Error(),
	}
}
