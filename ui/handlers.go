package ui

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"regsim/app"
	"regsim/domain/core"
	"regsim/domain/simulation"
	"regsim/domain/summary"
	"regsim/ui/report"
)

// handleIndex renders the experiment list and the run form
func (s *Server) handleIndex(c *gin.Context) {
	experiments, err := s.service.ListExperiments(c.Request.Context(), 50, 0)
	if err != nil {
		log.Printf("[Dashboard] Failed to list experiments: %v", err)
		experiments = nil
	}

	data := map[string]interface{}{
		"Title":       "regsim",
		"Experiments": experiments,
		"Error":       c.Query("error"),
	}
	s.renderTemplate(c, "index.html", data)
}

// handleRunExperiment runs an experiment from the dashboard form and
// redirects to its detail page
func (s *Server) handleRunExperiment(c *gin.Context) {
	req, err := parseRunForm(c)
	if err != nil {
		s.redirectError(c, err)
		return
	}

	result, err := s.service.Run(c.Request.Context(), req)
	if err != nil {
		s.redirectError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/experiments/"+result.Experiment.ID.String())
}

// handleExperimentDetail renders one experiment with its summary and
// calibration tables when results exist
func (s *Server) handleExperimentDetail(c *gin.Context) {
	id, err := core.ParseExperimentID(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid experiment id")
		return
	}

	exp, err := s.service.GetExperiment(c.Request.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.String(http.StatusNotFound, "experiment not found")
			return
		}
		c.String(http.StatusInternalServerError, "failed to load experiment")
		return
	}

	var (
		sum        *summary.ResultSummary
		cal        *summary.CalibrationReport
		summaryErr string
	)
	if exp.Status == simulation.StatusCompleted && exp.TrialCount > 0 {
		if sum, err = s.service.Summarize(c.Request.Context(), id); err != nil {
			summaryErr = err.Error()
		} else if cal, err = s.service.Calibrate(c.Request.Context(), id); err != nil {
			summaryErr = err.Error()
		}
	}

	data := map[string]interface{}{
		"Title":        "Experiment " + exp.ID.String(),
		"Experiment":   exp,
		"Summary":      sum,
		"Calibration":  cal,
		"SummaryError": summaryErr,
	}
	s.renderTemplate(c, "experiment.html", data)
}

// handleExperimentReport renders the markdown experiment report as HTML
func (s *Server) handleExperimentReport(c *gin.Context) {
	id, err := core.ParseExperimentID(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid experiment id")
		return
	}

	exp, err := s.service.GetExperiment(c.Request.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.String(http.StatusNotFound, "experiment not found")
			return
		}
		c.String(http.StatusInternalServerError, "failed to load experiment")
		return
	}

	var (
		sum *summary.ResultSummary
		cal *summary.CalibrationReport
	)
	if exp.Status == simulation.StatusCompleted && exp.TrialCount > 0 {
		sum, _ = s.service.Summarize(c.Request.Context(), id)
		cal, _ = s.service.Calibrate(c.Request.Context(), id)
	}

	md := report.Markdown(exp, sum, cal)
	body := report.HTML(md)

	page := fmt.Sprintf(reportShell, exp.ID.String(), body)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// handleAudits renders the stored equivalence audits
func (s *Server) handleAudits(c *gin.Context) {
	audits, err := s.service.ListAudits(c.Request.Context(), 50)
	if err != nil {
		log.Printf("[Dashboard] Failed to list audits: %v", err)
		audits = nil
	}

	data := map[string]interface{}{
		"Title":  "Equivalence audits",
		"Audits": audits,
	}
	s.renderTemplate(c, "audits.html", data)
}

func (s *Server) redirectError(c *gin.Context, err error) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(err.Error()))
}

// parseRunForm turns the dashboard form into a run request. The form
// takes an observation count and runs on the 0..n-1 predictor grid.
func parseRunForm(c *gin.Context) (app.RunRequest, error) {
	var req app.RunRequest

	slope, err := formFloat(c, "slope_true")
	if err != nil {
		return req, err
	}
	intercept, err := formFloat(c, "intercept_true")
	if err != nil {
		return req, err
	}
	sigma, err := formFloat(c, "sigma")
	if err != nil {
		return req, err
	}
	observations, err := formInt(c, "observations")
	if err != nil {
		return req, err
	}
	seed, err := strconv.ParseInt(c.PostForm("seed"), 10, 64)
	if err != nil {
		return req, fmt.Errorf("seed: not a valid integer")
	}
	trials, err := formInt(c, "trials")
	if err != nil {
		return req, err
	}
	workers, err := formInt(c, "workers")
	if err != nil {
		return req, err
	}

	req = app.RunRequest{
		SlopeTrue:     slope,
		InterceptTrue: intercept,
		Sigma:         sigma,
		Predictors:    simulation.SequencePredictors(observations),
		Seed:          seed,
		Trials:        trials,
		Workers:       workers,
		Export:        c.PostForm("export") == "on",
	}
	return req, nil
}

func formFloat(c *gin.Context, name string) (float64, error) {
	v, err := strconv.ParseFloat(c.PostForm(name), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a valid number", name)
	}
	return v, nil
}

func formInt(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.PostForm(name))
	if err != nil {
		return 0, fmt.Errorf("%s: not a valid integer", name)
	}
	return v, nil
}

const reportShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Report %s</title>
<style>
body { font-family: Georgia, serif; max-width: 54rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #f4f4f4; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
</style>
</head>
<body>
%s
</body>
</html>`
