// Package web serves the recommendation form and its JSON API.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"nutrisyn"
	"nutrisyn/recommend"
	"nutrisyn/tools"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	provider     recommend.TableProvider
	advisor      recommend.Recommender
	tools        *tools.Registry
	slack        nutrisyn.SlackClient
	slackChannel string

	*echo.Echo
}

type Opts struct {
	Provider recommend.TableProvider
	Advisor  recommend.Recommender
	Tools    *tools.Registry
	// Slack is optional; POST /api/share answers 503 without it.
	Slack        nutrisyn.SlackClient
	SlackChannel string
}

func NewServer(opts Opts) (*Server, error) {
	if opts.Provider == nil || opts.Advisor == nil {
		return nil, fmt.Errorf("web server requires a dataset provider and an advisor")
	}
	if opts.Tools == nil {
		opts.Tools = tools.NewRegistry(opts.Provider, nil)
	}

	s := &Server{
		provider:     opts.Provider,
		advisor:      opts.Advisor,
		tools:        opts.Tools,
		slack:        opts.Slack,
		slackChannel: opts.SlackChannel,
	}

	e, err := s.registerRoutes()
	if err != nil {
		return nil, err
	}
	s.Echo = e
	return s, nil
}

// HTTPServer wraps the router in an http.Server. The write timeout leaves
// room for one model call plus the nutrient lookups.
func (s *Server) HTTPServer(addr string, modelTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: modelTimeout + 30*time.Second,
	}
}
