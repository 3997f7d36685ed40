package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"regsim/app"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// Server is the regsim dashboard: a small gin application over the
// experiment service with server-rendered pages.
type Server struct {
	router    *gin.Engine
	service   *app.ExperimentService
	templates *template.Template
}

// NewServer creates the dashboard server around the given service
func NewServer(service *app.ExperimentService) (*Server, error) {
	funcMap := template.FuncMap{
		"f3": func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"f4": func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"short": func(s string) string {
			if len(s) > 8 {
				return s[:8]
			}
			return s
		},
		"upper": strings.ToUpper,
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.Default(),
		service:   service,
		templates: templates,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures the dashboard routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/experiments", s.handleRunExperiment)
	s.router.GET("/experiments/:id", s.handleExperimentDetail)
	s.router.GET("/experiments/:id/report", s.handleExperimentReport)
	s.router.GET("/audits", s.handleAudits)
}

// Start starts the dashboard server
func (s *Server) Start(addr string) error {
	log.Printf("Starting regsim dashboard on http://%s", addr)
	return s.router.Run(addr)
}

// renderTemplate writes a parsed template to the response
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(c.Writer, templateName, data); err != nil {
		log.Printf("[Dashboard] Template error: %v", err)
		c.AbortWithStatus(500)
	}
}
