// Package logging provides module-scoped slog loggers for signcast.
//
// Each subsystem obtains its logger via GetLogger("module") and the level for
// every module can be tuned independently from the [logging] config section.
// Records fan out to stdout, the systemd journal when running under systemd,
// and an in-memory ring buffer that backs the run log served by the API.
package logging
