package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"regsim/app"
	"regsim/domain/core"
)

// resultColumns is the columnar JSON form of a result set, in the
// stable column order slope, intercept, residual_variance.
type resultColumns struct {
	Slope            []float64 `json:"slope"`
	Intercept        []float64 `json:"intercept"`
	ResidualVariance []float64 `json:"residual_variance"`
}

type resultsResponse struct {
	ExperimentID string        `json:"experiment_id"`
	Trials       int           `json:"trials"`
	Columns      resultColumns `json:"columns"`
	Fingerprint  string        `json:"fingerprint"`
}

// handleHealth reports service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunExperiment runs a full experiment from a JSON request body
func (s *Server) handleRunExperiment(w http.ResponseWriter, r *http.Request) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.service.Run(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, result)
}

// handleListExperiments lists stored experiments, newest first
func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	experiments, err := s.service.ListExperiments(r.Context(), limit, offset)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"experiments": experiments,
		"count":       len(experiments),
	})
}

// handleGetExperiment returns a single experiment record
func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	exp, err := s.service.GetExperiment(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, exp)
}

// handleGetResults returns the stored trial results in columnar form
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	results, err := s.service.GetResults(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, resultsResponse{
		ExperimentID: id.String(),
		Trials:       results.Len(),
		Columns: resultColumns{
			Slope:            results.Slopes(),
			Intercept:        results.Intercepts(),
			ResidualVariance: results.ResidualVariances(),
		},
		Fingerprint: string(results.Fingerprint()),
	})
}

// handleGetSummary returns descriptive statistics for a stored run
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.service.Summarize(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, result)
}

// handleGetCalibration checks a stored run against its true parameters
func (s *Server) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	report, err := s.service.Calibrate(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, report)
}

// handleReplayExperiment re-runs a completed experiment and verifies
// the stored fingerprint. A mismatch answers 409 with both hashes.
func (s *Server) handleReplayExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.service.Replay(r.Context(), id)
	if err != nil {
		if result != nil && !result.Match {
			respond(w, http.StatusConflict, result)
			return
		}
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, result)
}

// handleRunAudit runs the naive/fast equivalence audit
func (s *Server) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	var req app.AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.service.Audit(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, result)
}

// handleListAudits lists stored equivalence audits, newest first
func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	audits, err := s.service.ListAudits(r.Context(), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"audits": audits,
		"count":  len(audits),
	})
}

// respondError maps domain errors onto HTTP status codes
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
	case core.IsValidationError(err):
		status = http.StatusBadRequest
	case core.IsDeterminismError(err):
		status = http.StatusConflict
	}

	respond(w, status, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
