// Package itemstore holds the client-visible item state and the two
// operations that change it through the items service.
//
// Operations never return Go errors. Failures are recorded in State.Err and
// in the returned Result. Overlapping calls are not serialized: whichever
// call settles last decides Loading and Err, and a FetchItems that settles
// after an AddItem replaces the list wholesale.
package itemstore

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/idilsaglam/itemboard/internal/api"
	"github.com/idilsaglam/itemboard/internal/config"
	"github.com/idilsaglam/itemboard/internal/model"
)

const (
	fetchFallback = "Failed to fetch items"
	addFallback   = "Failed to add item"
)

// Service is the remote side the store talks to. *api.Client satisfies it.
type Service interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	CreateItem(ctx context.Context, name string) (model.Item, error)
}

// Config is passed explicitly to New.
type Config struct {
	// BaseURL of the items service; config.DefaultAPIURL when empty.
	BaseURL string
}

// Option tunes a Store built by New.
type Option func(*options)

type options struct {
	apiOpts []api.Option
	tracer  trace.Tracer
}

// WithAPIOptions forwards options to the underlying api.Client.
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *options) { o.apiOpts = append(o.apiOpts, opts...) }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Store owns State and publishes every change to subscribers.
type Store struct {
	svc     Service
	baseURL string
	tracer  trace.Tracer

	// pubMu orders apply+publish so subscribers see transitions in order.
	pubMu sync.Mutex
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// New returns a store backed by an HTTP client for cfg.BaseURL.
func New(cfg Config, opts ...Option) *Store {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	base := config.ResolveAPIURL(cfg.BaseURL)
	s := NewWithService(api.New(base, o.apiOpts...))
	s.baseURL = base
	if o.tracer != nil {
		s.tracer = o.tracer
	}
	return s
}

// NewWithService returns a store that uses svc directly.
func NewWithService(svc Service) *Store {
	return &Store{
		svc:    svc,
		tracer: otel.Tracer("github.com/idilsaglam/itemboard/internal/itemstore"),
		state:  State{Items: []model.Item{}},
		subs:   map[int]func(State){},
	}
}

// BaseURL returns the configured service URL, or "" for injected services.
func (s *Store) BaseURL() string { return s.baseURL }

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every transition.
// fn must not call FetchItems or AddItem synchronously.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) apply(ts ...Transition) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	for _, t := range ts {
		s.state = t(s.state)
	}
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap.clone())
	}
}

// FetchItems replaces Items with the server list.
func (s *Store) FetchItems(ctx context.Context) Result[[]model.Item] {
	ctx, span := s.tracer.Start(ctx, "itemstore.FetchItems")
	defer span.End()

	s.apply(begin)
	defer s.apply(settled)

	items, err := s.svc.ListItems(ctx)
	if err != nil {
		msg := errorMessage(err, fetchFallback)
		recordFailure(span, err)
		s.apply(failed(msg))
		return Result[[]model.Item]{Err: msg}
	}
	if items == nil {
		items = []model.Item{}
	}
	span.SetAttributes(attribute.Int("items.count", len(items)))
	s.apply(fetched(items))
	return Result[[]model.Item]{Value: items}
}

// AddItem creates name on the server and appends the returned Item.
// The caller trims and rejects empty names.
func (s *Store) AddItem(ctx context.Context, name string) Result[model.Item] {
	ctx, span := s.tracer.Start(ctx, "itemstore.AddItem")
	defer span.End()

	s.apply(begin)
	defer s.apply(settled)

	created, err := s.svc.CreateItem(ctx, name)
	if err != nil {
		msg := errorMessage(err, addFallback)
		recordFailure(span, err)
		s.apply(failed(msg))
		return Result[model.Item]{Err: msg}
	}
	span.SetAttributes(attribute.Int64("item.id", created.ID))
	s.apply(added(created))
	return Result[model.Item]{Value: created}
}

func errorMessage(err error, fallback string) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
