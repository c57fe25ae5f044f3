// Package server exposes screening runs over HTTP: upload a workbook of
// names, screen them against the configured sources, inspect the raw
// results as JSON, and download the reconciled workbook. The server
// holds the latest run in memory; a new upload replaces it.
package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/complykit/screendiff"
	"github.com/complykit/screendiff/internal/output"
	"github.com/complykit/screendiff/internal/spreadsheet"
	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/screening"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	screener *screendiff.Screener
	writer   *spreadsheet.Writer
	logger   *zerolog.Logger
	addr     string
	started  time.Time

	mu  sync.RWMutex
	run *runState
}

// runState is the latest completed screening run.
type runState struct {
	RanAt   time.Time
	Names   []string
	Results []*screening.QueryResult
	Entries []spreadsheet.Entry
}

// New creates a server around a configured screener.
func New(screener *screendiff.Screener, addr string, logger *zerolog.Logger) *Server {
	return &Server{
		screener: screener,
		writer:   spreadsheet.NewWriter(),
		logger:   logger,
		addr:     addr,
		started:  time.Now(),
	}
}

// Handler builds the route table wrapped in the middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/screenings", s.handleCreate)
	mux.HandleFunc("GET /api/v1/screenings", s.handleList)
	mux.HandleFunc("GET /api/v1/screenings/export", s.handleExport)

	return Chain(
		Recovery(s.logger),
		Logger(s.logger),
	)(mux)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleCreate accepts a multipart workbook upload, screens every name
// in it, and stores the run as the current one.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		BadRequest(w, "invalid multipart upload", err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "missing form file", `upload the workbook as form field "file"`)
		return
	}
	defer func() { _ = file.Close() }()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(w, "not a readable .xlsx workbook", err.Error())
		return
	}
	defer func() { _ = workbook.Close() }()

	names, err := spreadsheet.ReadNamesFrom(workbook)
	if err != nil {
		FromError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RunTimeout)
	defer cancel()

	set, err := s.screener.Run(ctx, names)
	if err != nil {
		s.logger.Error().Err(err).Msg("screening run failed")
		InternalError(w)
		return
	}

	entries, err := s.screener.Entries(set)
	if err != nil {
		FromError(w, err)
		return
	}

	run := &runState{
		RanAt:   time.Now(),
		Names:   names,
		Results: set.List(),
		Entries: entries,
	}
	s.mu.Lock()
	s.run = run
	s.mu.Unlock()

	Created(w, map[string]any{
		"ran_at":  run.RanAt,
		"summary": output.Summarize(s.screener.SourceIDs(), run.Results),
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()

	if run == nil {
		NotFound(w, "no screening run yet")
		return
	}

	OK(w, map[string]any{
		"ran_at":  run.RanAt,
		"names":   run.Names,
		"results": run.Results,
	})
}

// handleExport streams the current run as a workbook download. The
// views query parameter selects sheets, comma-separated.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()

	if run == nil {
		NotFound(w, "no screening run yet")
		return
	}

	var names []string
	if raw := r.URL.Query().Get("views"); raw != "" {
		names = strings.Split(raw, ",")
	}
	views, err := spreadsheet.ParseViews(names)
	if err != nil {
		FromError(w, err)
		return
	}

	filename := "screendiff-" + run.RanAt.Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.writer.WriteTo(w, run.Entries, views); err != nil {
		// Headers are out; all we can do is log.
		s.logger.Error().Err(err).Msg("export stream failed")
	}
}
