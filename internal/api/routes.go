package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/metrics"
	"github.com/signcast/signcast/internal/updater"
	"github.com/signcast/signcast/internal/version"
)

// HealthResponse reports liveness.
type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Service health"`
	}
}

// VersionResponse reports build information.
type VersionResponse struct {
	Body version.Info
}

// BinaryStatus describes the resolved encoder binary.
type BinaryStatus struct {
	Path      string `json:"path" doc:"Resolved executable path"`
	Source    string `json:"source" example:"bundled" doc:"Active source policy"`
	Available bool   `json:"available" doc:"Whether the executable exists on disk"`
	OK        bool   `json:"ok" doc:"Whether the source configuration is usable"`
	Message   string `json:"message" doc:"Human-readable source diagnostic"`
}

// LastRunStatus summarizes the most recent assembly run.
type LastRunStatus struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// StatusResponse is the daemon status document.
type StatusResponse struct {
	Body struct {
		Version       string          `json:"version"`
		SlidesDir     string          `json:"slides_dir"`
		OutputPath    string          `json:"output_path"`
		IntervalMin   int             `json:"interval_minutes"`
		QualityPreset string          `json:"quality_preset"`
		Binary        BinaryStatus    `json:"binary"`
		LastRun       *LastRunStatus  `json:"last_run,omitempty"`
		Update        *updater.Status `json:"update,omitempty"`
	}
}

// TriggerResponse acknowledges a manual assembly request.
type TriggerResponse struct {
	Body struct {
		Triggered bool   `json:"triggered"`
		Message   string `json:"message"`
	}
}

// LogsResponse returns recent log entries from the ring buffer.
type LogsResponse struct {
	Body struct {
		Lines []string `json:"lines"`
	}
}

// UpdateInfoResponse wraps an update check result.
type UpdateInfoResponse struct {
	Body updater.Info
}

// UpdateStatusResponse wraps the updater state.
type UpdateStatusResponse struct {
	Body updater.Status
}

// UpdateActionResponse acknowledges apply/rollback.
type UpdateActionResponse struct {
	Body struct {
		Action  string `json:"action"`
		Success bool   `json:"success"`
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, _ *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Daemon status",
		Description: "Configuration summary, encoder binary state, and the last assembly run",
		Tags:        []string{"status"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*StatusResponse, error) {
		cfg := s.options.Daemon.Config()
		binary, ok, message := s.validateBinary()

		resp := &StatusResponse{}
		resp.Body.Version = version.Version
		resp.Body.SlidesDir = cfg.SlidesDir
		resp.Body.OutputPath = cfg.OutputPath(cfg.Container)
		resp.Body.IntervalMin = cfg.IntervalMinutes
		resp.Body.QualityPreset = cfg.QualityPreset
		resp.Body.Binary = BinaryStatus{
			Path:      binary.Path,
			Source:    string(binary.Source),
			Available: binary.Available,
			OK:        ok,
			Message:   message,
		}

		if run := metrics.LastRun(); !run.FinishedAt.IsZero() {
			resp.Body.LastRun = &LastRunStatus{
				Success:    run.Success,
				OutputPath: run.OutputPath,
				DurationMs: run.Duration.Milliseconds(),
				FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
			}
		}
		if s.options.Updater != nil {
			resp.Body.Update = s.options.Updater.GetStatus()
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "trigger-assembly",
		Method:      http.MethodPost,
		Path:        "/api/assemble",
		Summary:     "Trigger assembly",
		Description: "Wake the daemon cycle ahead of its interval",
		Tags:        []string{"assembly"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*TriggerResponse, error) {
		s.options.Daemon.Wake()
		resp := &TriggerResponse{}
		resp.Body.Triggered = true
		resp.Body.Message = "assembly cycle requested"
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Recent log lines from the in-memory ring buffer",
		Tags:        []string{"status"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*LogsResponse, error) {
		resp := &LogsResponse{}
		if buffer := logging.GetBuffer(); buffer != nil {
			entries := buffer.ReadAll()
			resp.Body.Lines = make([]string, 0, len(entries))
			for _, entry := range entries {
				resp.Body.Lines = append(resp.Body.Lines, logging.FormatLine(entry))
			}
		}
		return resp, nil
	})

	s.registerUpdateRoutes()
}

func (s *Server) registerUpdateRoutes() {
	if s.options.Updater == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "check-update",
		Method:      http.MethodPost,
		Path:        "/api/update/check",
		Summary:     "Check for update",
		Tags:        []string{"update"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*UpdateInfoResponse, error) {
		info, err := s.options.Updater.Check(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Update check failed", err)
		}
		return &UpdateInfoResponse{Body: *info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "apply-update",
		Method:      http.MethodPost,
		Path:        "/api/update/apply",
		Summary:     "Apply update",
		Description: "Apply the latest release and restart",
		Tags:        []string{"update"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*UpdateActionResponse, error) {
		if err := s.options.Updater.Apply(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Update failed", err)
		}
		resp := &UpdateActionResponse{}
		resp.Body.Action = "apply"
		resp.Body.Success = true
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "rollback-update",
		Method:      http.MethodPost,
		Path:        "/api/update/rollback",
		Summary:     "Roll back update",
		Tags:        []string{"update"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*UpdateActionResponse, error) {
		if err := s.options.Updater.Rollback(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Rollback failed", err)
		}
		resp := &UpdateActionResponse{}
		resp.Body.Action = "rollback"
		resp.Body.Success = true
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-update-status",
		Method:      http.MethodGet,
		Path:        "/api/update/status",
		Summary:     "Update status",
		Tags:        []string{"update"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*UpdateStatusResponse, error) {
		return &UpdateStatusResponse{Body: *s.options.Updater.GetStatus()}, nil
	})
}
