package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer is a html/template renderer for echo.
type TemplateRenderer struct {
	templates *template.Template
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'g', 4, 64)
	},
}

func newRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

func (s *Server) registerRoutes() (*echo.Echo, error) {
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", c.Get(requestIDKey),
			}
			if v.Error != nil {
				slog.Warn("WEB: Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("WEB: Request", attrs...)
			return nil
		},
	}))

	e.GET("/", s.indexHandler)
	e.POST("/recommend", s.recommendFormHandler)
	e.GET("/health", s.healthHandler)

	api := e.Group("/api")
	api.GET("/options", s.optionsHandler)
	api.POST("/recommend", s.recommendAPIHandler)
	api.GET("/tools", s.listToolsHandler)
	api.POST("/tools/:name", s.runToolHandler)
	api.POST("/share", s.shareHandler)

	return e, nil
}

const requestIDKey = "request_id"

func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)
		return next(c)
	}
}
