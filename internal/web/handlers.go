package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/datafeed/internal/core"
	"github.com/JonMunkholm/datafeed/internal/logging"
)

// DataResponse is the JSON envelope for dataset reads.
type DataResponse struct {
	Data     []core.Record `json:"data"`
	Metadata core.Metadata `json:"metadata"`
}

// AckResponse acknowledges an asynchronously initiated refresh. Success
// or failure of the refresh itself is reported only via server logs,
// correlated by JobID.
type AckResponse struct {
	JobID    string   `json:"job_id"`
	Message  string   `json:"message"`
	Datasets []string `json:"datasets,omitempty"`
}

// handleListDatasets returns every configured dataset whose backing file
// currently exists.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	infos := s.store.List()
	if infos == nil {
		infos = []core.DatasetInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetData serves a windowed snapshot of a dataset.
//
// If an entry is already cached it is served as-is and a gated freshness
// check is kicked off in the background, so the response never waits on
// its own refresh; the next call sees the result. The cold first call
// performs the load inline. ?skip and ?limit window the records (skip
// first, then limit); ?format=xlsx returns a workbook download instead
// of JSON.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if id == "" {
		respondBadRequest(w, "missing dataset id")
		return
	}

	skip, err := parseIntParam(r, "skip", 0)
	if err != nil || skip < 0 {
		respondBadRequest(w, "skip must be a non-negative integer")
		return
	}
	limit, err := parseIntParam(r, "limit", -1)
	if err != nil || (limit < 0 && r.URL.Query().Get("limit") != "") {
		respondBadRequest(w, "limit must be a non-negative integer")
		return
	}

	entry, err := s.store.Peek(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if entry == nil {
		// Cold start for this dataset: load inline.
		if _, entry, err = s.store.Get(r.Context(), id); err != nil {
			s.respondError(w, r, err)
			return
		}
	} else {
		// Serve the snapshot we have; freshen for the next caller.
		s.backgroundCheck(id)
	}

	records := core.Window(entry, skip, limit)

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, id))
		if err := core.WriteWorkbook(w, entry.Columns, records); err != nil {
			// Headers are already sent; log and bail.
			logging.FromContext(r.Context()).Error("xlsx export failed", "dataset", id, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, DataResponse{
		Data:     records,
		Metadata: entry.Meta,
	})
}

// handleRefresh initiates a forced refresh of one dataset and returns
// immediately. The acknowledgement does not imply the refresh succeeded.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if id == "" {
		respondBadRequest(w, "missing dataset id")
		return
	}

	if _, ok := s.store.Catalog().Get(id); !ok {
		s.respondError(w, r, fmt.Errorf("dataset %q: %w", id, core.ErrNotFound))
		return
	}

	jobID := uuid.NewString()
	s.spawnForceRefresh(jobID, id)

	writeJSON(w, http.StatusAccepted, AckResponse{
		JobID:   jobID,
		Message: fmt.Sprintf("refresh of %s in progress", id),
	})
}

// handleRefreshAll fans a forced refresh out over every configured dataset.
func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.NewString()
	var ids []string
	for _, ds := range s.store.Catalog().All() {
		ids = append(ids, ds.ID)
		s.spawnForceRefresh(jobID, ds.ID)
	}

	writeJSON(w, http.StatusAccepted, AckResponse{
		JobID:    jobID,
		Message:  "refresh of all datasets in progress",
		Datasets: ids,
	})
}

// spawnForceRefresh runs a forced refresh in the background, bounded by
// the refresh limiter. Failures are logged with the job id; the
// triggering request never waits on the outcome.
func (s *Server) spawnForceRefresh(jobID, id string) {
	go func() {
		logger := logging.WithFields(s.jobCtx, "job_id", jobID, "dataset", id)

		if err := s.limiter.Acquire(s.jobCtx); err != nil {
			logger.Warn("background refresh dropped, no slot", "error", err)
			return
		}
		defer s.limiter.Release()

		if _, err := s.store.ForceRefresh(s.jobCtx, id); err != nil {
			logger.Error("background refresh failed", "error", err)
			return
		}
		logger.Info("background refresh completed")
	}()
}

// backgroundCheck runs the gated (TTL + hash) freshness check for a
// dataset without blocking the caller.
func (s *Server) backgroundCheck(id string) {
	go func() {
		if !s.limiter.TryAcquire() {
			// Slots are saturated; the TTL gate will catch up on a later call.
			return
		}
		defer s.limiter.Release()

		if _, _, err := s.store.Get(s.jobCtx, id); err != nil {
			logging.WithFields(s.jobCtx, "dataset", id).
				Warn("background freshness check failed", "error", err)
		}
	}()
}

// parseIntParam parses an integer query parameter with a default value.
// Returns an error only when the parameter is present but malformed.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return i, nil
}
