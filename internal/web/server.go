// Package web serves the query page: a filter form that works without client
// scripting, followed by the matching tickets.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/export"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
)

//go:embed templates
var templateFS embed.FS

// Runner executes a filter form
type Runner interface {
	Run(ctx context.Context, cat *models.Catalog, form models.Form) (*models.QueryResult, error)
}

// Server renders and processes the query form
type Server struct {
	cfg     config.WebConfig
	catalog atomic.Pointer[models.Catalog]
	runner  Runner
	tmpl    *template.Template
	strict  bool
	log     *slog.Logger
}

// NewServer creates a server. runner may be nil, in which case the form is
// served without results.
func NewServer(cfg config.WebConfig, cat *models.Catalog, runner Runner) (*Server, error) {
	tmpl, err := template.New("query.html").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/query.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")
	if cfg.Title == "" {
		cfg.Title = "Custom Query"
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		tmpl:   tmpl,
		log:    logger.With("component", "web"),
	}
	s.catalog.Store(cat)
	return s, nil
}

// SetCatalog swaps the property catalog used for subsequent requests
func (s *Server) SetCatalog(cat *models.Catalog) {
	s.catalog.Store(cat)
	s.log.Info("property catalog reloaded", "properties", len(cat.Properties))
}

// SetStrict checks form invariants after every action
func (s *Server) SetStrict(strict bool) {
	s.strict = strict
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /query", s.handleQuery)
	mux.HandleFunc("POST /query", s.handleSubmit)
	mux.HandleFunc("GET /export/{format}", s.handleExport)
	mux.HandleFunc("GET /static/query.css", s.handleCSS)

	var h http.Handler = mux
	if s.cfg.BasePath != "" {
		h = http.StripPrefix(s.cfg.BasePath, h)
	}
	return withRequestLog(s.log, withSecurityHeaders(h))
}

type pageData struct {
	Title      string
	BasePath   string
	View       filterform.FormView
	Properties []models.Property
	Order      string
	Desc       bool
	Max        int
	Result     *models.QueryResult
	Error      string
	CSVURL     template.URL
	JSONURL    template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.cfg.BasePath+"/query", http.StatusFound)
}

// handleQuery renders the form described by the query string and the
// tickets it matches
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Load()
	v := r.URL.Query()
	form, err := filterform.ParseValues(cat, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctl := s.controller(cat, form)
	page := s.page(cat, ctl)
	page.View = filterform.Layout(cat, ctl.Form(), focusFromQuery(cat, ctl.Form(), v))

	if s.runner != nil {
		res, err := s.runner.Run(r.Context(), cat, ctl.Form())
		if err != nil {
			page.Error = err.Error()
		} else {
			page.Result = res
		}
	}
	s.render(w, http.StatusOK, page)
}

// handleSubmit applies the single action a submission asks for and redirects
// to the resulting query. A rejected duplicate filter is rendered in place
// with its notice.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cat := s.catalog.Load()
	form, err := filterform.ParseValues(cat, r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action, err := filterform.DecodeAction(cat, r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctl := s.controller(cat, form)
	if err := ctl.Apply(action); err != nil {
		s.log.Warn("failed to apply form action", "action", action.Kind.String(), "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ctl.Notice() != "" {
		page := s.page(cat, ctl)
		s.render(w, http.StatusOK, page)
		return
	}

	target := s.cfg.BasePath + "/query?" + ctl.QueryString()
	if f := ctl.Focus(); !f.IsZero() {
		target += "&" + url.Values{focusParam: {f.Key.String()}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil || format == export.FormatTable {
		http.NotFound(w, r)
		return
	}
	if s.runner == nil {
		http.Error(w, "no ticket database configured", http.StatusServiceUnavailable)
		return
	}

	cat := s.catalog.Load()
	form, err := filterform.ParseValues(cat, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.runner.Run(r.Context(), cat, form)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch format {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="query.csv"`)
		err = export.WriteCSV(w, res)
	default:
		w.Header().Set("Content-Type", "application/json")
		err = export.WriteJSON(w, res)
	}
	if err != nil {
		s.log.Error("failed to write export", "format", string(format), "error", err)
	}
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	css, err := templateFS.ReadFile("templates/query.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(css)
}

func (s *Server) controller(cat *models.Catalog, form models.Form) *filterform.Controller {
	ctl := filterform.NewController(cat, form, s.log)
	ctl.SetStrict(s.strict)
	return ctl
}

func (s *Server) page(cat *models.Catalog, ctl *filterform.Controller) pageData {
	form := ctl.Form()
	qs := ctl.QueryString()
	return pageData{
		Title:      s.cfg.Title,
		BasePath:   s.cfg.BasePath,
		View:       ctl.View(),
		Properties: cat.Properties,
		Order:      form.Order,
		Desc:       form.Desc,
		Max:        form.Max,
		CSVURL:     template.URL(s.cfg.BasePath + "/export/csv?" + qs),
		JSONURL:    template.URL(s.cfg.BasePath + "/export/json?" + qs),
	}
}

func (s *Server) render(w http.ResponseWriter, status int, page pageData) {
	var buf strings.Builder
	if err := s.tmpl.Execute(&buf, page); err != nil {
		s.log.Error("failed to render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// focusParam names the row to autofocus after a redirect. New rows are
// always the last of their group.
const focusParam = "focus"

func focusFromQuery(cat *models.Catalog, form models.Form, v url.Values) filterform.Focus {
	key, err := filterform.ParseFieldKey(cat, v.Get(focusParam))
	if err != nil {
		return filterform.Focus{}
	}
	ci := form.Clause(key.Clause)
	if ci < 0 {
		return filterform.Focus{}
	}
	gi := form.Clauses[ci].Group(key.Property)
	if gi < 0 {
		return filterform.Focus{}
	}
	return filterform.Focus{Key: key, Row: len(form.Clauses[ci].Groups[gi].Rows) - 1}
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; base-uri 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRequestLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout
func ListenAndServe(ctx context.Context, addr string, h http.Handler, t config.TimeoutConfig) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  time.Duration(t.Read) * time.Millisecond,
		WriteTimeout: time.Duration(t.Write) * time.Millisecond,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(t.Shutdown)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
