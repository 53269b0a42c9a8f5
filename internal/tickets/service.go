package tickets

import (
	"context"
	"log/slog"
	"time"

	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/history"
	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
)

// Recorder receives every executed query
type Recorder interface {
	Add(ctx context.Context, entry history.Entry) error
}

// Service compiles filter forms and runs them against a store
type Service struct {
	store   Store
	builder *filter.Builder
	opts    filter.SelectOptions
	timeout time.Duration
	history Recorder
	log     *slog.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithHistory records executed queries in r
func WithHistory(r Recorder) ServiceOption {
	return func(s *Service) { s.history = r }
}

// WithTimeout bounds each query
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithSelectOptions sets the default columns, order and limit
func WithSelectOptions(opts filter.SelectOptions) ServiceOption {
	return func(s *Service) { s.opts = opts }
}

// WithBuilder replaces the SQL builder, for example to pin its clock
func WithBuilder(b *filter.Builder) ServiceOption {
	return func(s *Service) { s.builder = b }
}

// NewService creates a service querying store
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		builder: filter.NewBuilder(store.Dialect()),
		log:     logger.With("component", "tickets"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run compiles the form and executes it. Compile errors are returned without
// touching the database; both compile and execution failures are recorded in
// history.
func (s *Service) Run(ctx context.Context, cat *models.Catalog, form models.Form) (*models.QueryResult, error) {
	qs := filterform.QueryString(cat, form)
	start := time.Now()

	sql, args, err := s.builder.BuildSelect(cat, form, s.opts)
	if err != nil {
		s.record(ctx, history.Entry{QueryString: qs, Duration: time.Since(start), ErrorMessage: err.Error()})
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.store.Search(ctx, Query{SQL: sql, Args: args})
	if err != nil {
		s.log.ErrorContext(ctx, "ticket query failed", "query", qs, "error", err)
		s.record(context.WithoutCancel(ctx), history.Entry{
			QueryString:  qs,
			SQL:          sql,
			Duration:     time.Since(start),
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	s.log.DebugContext(ctx, "ticket query", "query", qs, "rows", len(result.Rows), "duration", result.Duration)
	s.record(ctx, history.Entry{
		QueryString: qs,
		SQL:         sql,
		Duration:    time.Since(start),
		RowCount:    int64(len(result.Rows)),
		Success:     true,
	})
	return result, nil
}

func (s *Service) record(ctx context.Context, e history.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Add(ctx, e); err != nil {
		s.log.Warn("failed to record query history", "error", err)
	}
}
