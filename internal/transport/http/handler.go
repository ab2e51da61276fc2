package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/report"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
	"github.com/alexandresoro/ouca-sub007/internal/service"
)

type DepthReader interface {
	Depth(ctx context.Context) (int64, error)
}

// Subscriber streams the status messages of one job; the channel is closed
// after a terminal status or when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, jobID string) <-chan entity.StatusMessage
}

type Options struct {
	RequesterHeader string
	MaxUploadSize   int64
}

type Handler struct {
	svc    *service.ImportService
	queue  DepthReader
	events Subscriber
	log    *zap.Logger
	opts   Options
}

// NewHandler accepts a nil queue or events; the matching features are then disabled.
func NewHandler(svc *service.ImportService, queue DepthReader, events Subscriber, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RequesterHeader == "" {
		opts.RequesterHeader = "X-User-ID"
	}
	return &Handler{svc: svc, queue: queue, events: events, log: log, opts: opts}
}

type submitResp struct {
	ID string `json:"id"`
}

type importResp struct {
	ID         string              `json:"id"`
	EntityType entity.EntityType   `json:"entity_type"`
	Priority   int                 `json:"priority"`
	Status     entity.ImportStatus `json:"status"`
	Stale      bool                `json:"stale"`
	CreatedAt  string              `json:"created_at"`
	UpdatedAt  string              `json:"updated_at"`
}

type healthResp struct {
	Status     string `json:"status"`
	QueueDepth *int64 `json:"queue_depth,omitempty"`
}

// SubmitImport godoc
// @Summary Submit an import file
// @Description Stores the ';' separated file and queues it for validation and insertion.
// @Description The file is sent either as the multipart field "file" or as the raw request body.
// @Tags imports
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param entityType path string true "entity type" Enums(observer, department, town, locality, weather, class, species, sex, age, number-estimate, distance-estimate, behavior, environment, observation)
// @Param priority query int false "0=low,1=normal,2=high (default 1)"
// @Param file formData file false "import file"
// @Param X-User-ID header string true "requester id"
// @Success 202 {object} submitResp
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Failure 413 {object} apiError
// @Failure 500 {object} apiError
// @Router /imports/{entityType} [post]
func (h *Handler) SubmitImport(w http.ResponseWriter, r *http.Request) {
	t := entity.EntityType(chi.URLParam(r, "entityType"))
	if !t.Valid() {
		writeErr(w, http.StatusBadRequest, "unknown entity type")
		return
	}

	priority := 1
	if raw := r.URL.Query().Get("priority"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 || p > 2 {
			writeErr(w, http.StatusBadRequest, "invalid priority")
			return
		}
		priority = p
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid upload")
		return
	}

	id, err := h.svc.SubmitImport(r.Context(), service.SubmitImportRequest{
		EntityType:  t,
		RequesterID: requesterFrom(r.Context()),
		Priority:    priority,
		Data:        data,
	})
	switch {
	case errors.Is(err, service.ErrEmptyUpload):
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error("submit import failed", zap.String("entity_type", string(t)), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Location", "/imports/"+id.String())
	writeJSON(w, http.StatusAccepted, submitResp{ID: id.String()})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if h.opts.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// GetImport godoc
// @Summary Get an import and its latest status
// @Tags imports
// @Produce json
// @Param id path string true "import id (uuid)"
// @Param X-User-ID header string true "requester id"
// @Success 200 {object} importResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /imports/{id} [get]
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.importID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetImport(r.Context(), id)
	if !h.visible(w, r, err, func() string { return view.Job.RequesterID }) {
		return
	}

	writeJSON(w, http.StatusOK, importResp{
		ID:         view.Job.ID.String(),
		EntityType: view.Job.EntityType,
		Priority:   view.Job.Priority,
		Status:     view.Status,
		Stale:      view.Stale,
		CreatedAt:  view.Job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  view.Job.UpdatedAt.Format(time.RFC3339),
	})
}

// ImportErrors godoc
// @Summary Download the rejected rows of a completed import
// @Tags imports
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "import id (uuid)"
// @Param format query string false "report format" Enums(csv, xlsx)
// @Param X-User-ID header string true "requester id"
// @Success 200 {file} file
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /imports/{id}/errors [get]
func (h *Handler) ImportErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := h.importID(w, r)
	if !ok {
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid format")
		return
	}

	rep, err := h.svc.ImportErrors(r.Context(), id, requesterFrom(r.Context()))
	if errors.Is(err, service.ErrImportNotCompleted) {
		writeErr(w, http.StatusConflict, "import not completed")
		return
	}
	if !h.visible(w, r, err, func() string { return rep.RequesterID }) {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, rep.Columns, rep.Errors); err != nil {
		h.log.Error("render error report failed", zap.String("job_id", id.String()), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeAttachment(w, format.ContentType(), fmt.Sprintf("%s-errors.%s", id, format), buf.Bytes())
}

// ImportEvents godoc
// @Summary Stream the status of an import
// @Description Server-sent events, one "status" event per status change, closed after a terminal status.
// @Tags imports
// @Produce text/event-stream
// @Param id path string true "import id (uuid)"
// @Param X-User-ID header string true "requester id"
// @Success 200 {string} string
// @Failure 404 {object} apiError
// @Router /imports/{id}/events [get]
func (h *Handler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeErr(w, http.StatusNotFound, "event stream not available")
		return
	}
	id, ok := h.importID(w, r)
	if !ok {
		return
	}
	events, ok := openEventStream(w)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Subscribe before reading the current status so no change is lost in between.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stream := h.events.Subscribe(ctx, id.String())

	view, err := h.svc.GetImport(ctx, id)
	if !h.visible(w, r, err, func() string { return view.Job.RequesterID }) {
		return
	}

	events.start()
	current := entity.StatusMessage{JobID: id.String(), EmittedAt: time.Now().UTC(), Status: view.Status}
	if err := events.send("status", current); err != nil || view.Status.Terminal() {
		return
	}
	for msg := range stream {
		if err := events.send("status", msg); err != nil || msg.Status.Terminal() {
			return
		}
	}
}

// ImportTypes godoc
// @Summary List the importable entity types and their columns
// @Tags imports
// @Produce json
// @Success 200 {array} importer.Contract
// @Router /imports/types [get]
func (h *Handler) ImportTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, importer.Contracts())
}

// Health godoc
// @Summary Liveness and queue depth
// @Tags ops
// @Produce json
// @Success 200 {object} healthResp
// @Failure 503 {object} healthResp
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeJSON(w, http.StatusOK, healthResp{Status: "ok"})
		return
	}

	depth, err := h.queue.Depth(r.Context())
	if err != nil {
		h.log.Warn("queue depth unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResp{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, healthResp{Status: "ok", QueueDepth: &depth})
}

func (h *Handler) importID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// visible writes the error response for err, or a 404 when the import belongs
// to another requester. owner is only called when err is nil.
func (h *Handler) visible(w http.ResponseWriter, r *http.Request, err error, owner func() string) bool {
	switch {
	case errors.Is(err, postgresql.ErrNotFound), errors.Is(err, service.ErrNotOwner):
		writeErr(w, http.StatusNotFound, "import not found")
		return false
	case err != nil:
		h.log.Error("read import failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
		return false
	case owner() != requesterFrom(r.Context()):
		writeErr(w, http.StatusNotFound, "import not found")
		return false
	}
	return true
}
