// Package api exposes the daemon's HTTP surface: health, status, manual
// assembly triggers, self-update control, and Prometheus metrics.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/signcast/signcast/internal/daemon"
	"github.com/signcast/signcast/internal/ffbin"
	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/updater"
)

// Options wires the server to the rest of the daemon.
type Options struct {
	AuthUsername string
	AuthPassword string

	Daemon            *daemon.Daemon
	Updater           *updater.Service
	PrometheusHandler http.Handler
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer builds the API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("SignCast API", "1.0.0")
	config.Info.Description = "Digital signage video assembly daemon"
	// Relative paths work behind any host or proxy
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	server := &Server{
		api:     humago.New(mux, config),
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	server.api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		server.api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Prometheus scraping stays outside the authenticated API
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// withAuth marks an operation as requiring basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{{"basicAuth": {}}}
}

// validateBinary resolves the active source policy and reports on it.
func (s *Server) validateBinary() (ffbin.Binary, bool, string) {
	cfg := s.options.Daemon.Config()

	source, err := ffbin.ParseSource(cfg.BinarySource)
	if err != nil {
		return ffbin.Binary{}, false, err.Error()
	}
	provisioner, err := ffbin.New(ffbin.Config{Source: source, CustomPath: cfg.BinaryPath})
	if err != nil {
		return ffbin.Binary{}, false, err.Error()
	}

	ok, message := provisioner.ValidateConfiguration()
	return provisioner.Resolve(), ok, message
}

// Start runs the HTTP server until Stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down immediately.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}
