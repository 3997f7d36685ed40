package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regsim/app"
	"regsim/domain/simulation"
	"regsim/domain/summary"
	"regsim/internal/testkit"
)

func newTestServer() *Server {
	kit := testkit.NewTestKit()
	return NewServer(kit.ExperimentService())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func scenarioRun(trials int) app.RunRequest {
	return app.RunRequest{
		SlopeTrue:     12.25,
		InterceptTrue: 240.16,
		Sigma:         8.55,
		Predictors:    simulation.SequencePredictors(10),
		Seed:          8675309,
		Trials:        trials,
		Workers:       1,
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer()

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_RunAndFetchExperiment(t *testing.T) {
	s := newTestServer()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/experiments", scenarioRun(50))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run app.RunResult
	decode(t, rec, &run)
	require.NotNil(t, run.Experiment)
	assert.Equal(t, simulation.StatusCompleted, run.Experiment.Status)
	assert.NotEmpty(t, run.Fingerprint)

	id := run.Experiment.ID.String()

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var exp simulation.Experiment
	decode(t, rec, &exp)
	assert.Equal(t, run.Experiment.ID, exp.ID)
	assert.Equal(t, 50, exp.TrialCount)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Experiments []*simulation.Experiment `json:"experiments"`
		Count       int                      `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/"+id+"/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results resultsResponse
	decode(t, rec, &results)
	assert.Equal(t, 50, results.Trials)
	assert.Len(t, results.Columns.Slope, 50)
	assert.Len(t, results.Columns.Intercept, 50)
	assert.Len(t, results.Columns.ResidualVariance, 50)
	assert.Equal(t, string(run.Fingerprint), results.Fingerprint)
}

func TestServer_RunRejectsInvalidParameters(t *testing.T) {
	s := newTestServer()

	req := scenarioRun(10)
	req.Sigma = 0

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/experiments", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.NotEmpty(t, body["error"])
}

func TestServer_RunRejectsMalformedBody(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/experiments", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UnknownExperimentAnswers404(t *testing.T) {
	s := newTestServer()

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/no-such-id/results", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SummaryAndCalibration(t *testing.T) {
	s := newTestServer()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/experiments", scenarioRun(2000))
	require.Equal(t, http.StatusCreated, rec.Code)

	var run app.RunResult
	decode(t, rec, &run)
	id := run.Experiment.ID.String()

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum summary.ResultSummary
	decode(t, rec, &sum)
	assert.Equal(t, 2000, sum.TrialCount)
	assert.InDelta(t, 12.25, sum.Slope.Mean, 1.0)
	assert.InDelta(t, 240.16, sum.Intercept.Mean, 10.0)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/experiments/"+id+"/calibration", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report summary.CalibrationReport
	decode(t, rec, &report)
	assert.Equal(t, 2000, report.TrialCount)
	assert.Len(t, report.Checks(), 3)
}

func TestServer_AuditEndpoints(t *testing.T) {
	s := newTestServer()

	req := app.AuditRequest{
		SlopeTrue:     12.25,
		InterceptTrue: 240.16,
		Sigma:         8.55,
		Predictors:    simulation.SequencePredictors(10),
		Seed:          8675309,
		Trials:        50,
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/audits/equivalence", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var audit app.AuditResult
	decode(t, rec, &audit)
	assert.True(t, audit.Report.Passed)
	assert.Equal(t, 50, audit.Report.Trials)
	assert.NotEmpty(t, audit.AuditID)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/audits", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Audits []*simulation.AuditRecord `json:"audits"`
		Count  int                       `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)
}

func TestServer_ReplayConfirmsFingerprint(t *testing.T) {
	s := newTestServer()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/experiments", scenarioRun(100))
	require.Equal(t, http.StatusCreated, rec.Code)

	var run app.RunResult
	decode(t, rec, &run)
	id := run.Experiment.ID.String()

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/experiments/"+id+"/replay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var replay app.ReplayResult
	decode(t, rec, &replay)
	assert.True(t, replay.Match)
	assert.Equal(t, replay.Expected, replay.Actual)
}
