package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvnair/fraudsight/internal/api/middleware"
	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/jobs"
)

// IngestHandler handles batch ingestion endpoints.
type IngestHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(publisher jobs.Publisher, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		publisher: publisher,
		log:       log,
	}
}

// EnqueueIngest handles POST /api/ingest
func (h *IngestHandler) EnqueueIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileURI string `json:"file_uri"`
		Source  string `json:"source"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FileURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "file_uri is required")
		return
	}

	if req.Source != "" {
		switch domain.SourceType(req.Source) {
		case domain.SourceATM, domain.SourceUPI, domain.SourceCustomers:
		default:
			middleware.WriteError(w, http.StatusBadRequest, "source must be one of: atm, upi, customers")
			return
		}
	}

	ctx := r.Context()

	job := &jobs.IngestFileJob{
		FileURI: req.FileURI,
		Source:  domain.SourceType(req.Source),
	}

	if err := h.publisher.PublishIngestFile(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("file_uri", req.FileURI).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.JobID,
		"file_uri": req.FileURI,
		"status":   string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		FileURI: query.Get("file_uri"),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
