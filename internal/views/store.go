package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"finitefield.org/chatthing-web/internal/uistate"
)

const (
	handleName             = "view"
	defaultIdleTimeout     = 2 * time.Hour
	defaultLifetime        = 24 * time.Hour
	defaultCleanupInterval = 10 * time.Minute
	defaultMaxViews        = 10000
)

var (
	// ErrInvalidHandle indicates the handle was tampered with, malformed or past its lifetime.
	ErrInvalidHandle = errors.New("views: invalid handle")
	// ErrViewNotFound indicates the view was evicted after sitting idle.
	ErrViewNotFound = errors.New("views: view not found")
)

const instrumentationName = "finitefield.org/chatthing-web/internal/views"

var tracer = otel.Tracer(instrumentationName)

// Config controls page view lifetime and handle signing.
type Config struct {
	// IdleTimeout evicts views with no events for this long.
	IdleTimeout time.Duration
	// Lifetime bounds how long a handle is accepted after the page was served.
	Lifetime        time.Duration
	CleanupInterval time.Duration
	// MaxViews bounds the number of live views. Creating a view at the
	// limit evicts the one that went longest without an event.
	MaxViews int
	// HashKey signs handles. A random key is generated when empty, which
	// invalidates handles across restarts; views are in memory anyway.
	HashKey  []byte
	BlockKey []byte
	Now      func() time.Time
	// NewID generates view ids; defaults to ULIDs.
	NewID func() string
	// Meter records event counts; defaults to the global meter provider.
	Meter metric.Meter
}

// View is the state of one rendered page.
type View struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	page    *uistate.Page
	touched atomic.Uint64
}

// Snapshot copies the view's current state.
func (v *View) Snapshot() uistate.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page.Snapshot()
}

// Store keeps page views in memory between events.
type Store struct {
	cache    *cache.Cache
	codec    *securecookie.SecureCookie
	now      func() time.Time
	newID    func() string
	events   metric.Int64Counter
	maxViews int

	// createMu keeps the view count at or below maxViews.
	createMu sync.Mutex
	clock    atomic.Uint64
}

// NewStore constructs a Store using cfg.
func NewStore(cfg Config) (*Store, error) {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.MaxViews <= 0 {
		cfg.MaxViews = defaultMaxViews
	}
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
		if cfg.HashKey == nil {
			return nil, errors.New("views: generate hash key")
		}
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("views: block key must be 16, 24 or 32 bytes, got %d", len(cfg.BlockKey))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	events, err := meter.Int64Counter(
		"ui.events",
		metric.WithDescription("UI events applied to page views, by kind and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("views: register event counter: %w", err)
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Store{
		cache:    cache.New(cfg.IdleTimeout, cfg.CleanupInterval),
		codec:    codec,
		now:      now,
		newID:    newID,
		events:   events,
		maxViews: cfg.MaxViews,
	}, nil
}

// Create registers a fresh view for a page with faqCount FAQ entries and
// returns it with its signed handle.
func (s *Store) Create(faqCount int) (*View, string, error) {
	view := &View{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		page:      uistate.NewPage(faqCount),
	}
	handle, err := s.codec.Encode(handleName, view.ID)
	if err != nil {
		return nil, "", fmt.Errorf("views: encode handle: %w", err)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if s.cache.ItemCount() >= s.maxViews {
		s.cache.DeleteExpired()
		for s.cache.ItemCount() >= s.maxViews {
			if !s.evictStalest() {
				break
			}
		}
	}
	s.touch(view)
	s.cache.Set(view.ID, view, cache.DefaultExpiration)
	return view, handle, nil
}

func (s *Store) touch(view *View) {
	view.touched.Store(s.clock.Add(1))
}

// evictStalest drops the view whose last create or event is oldest.
func (s *Store) evictStalest() bool {
	var (
		stalest string
		oldest  uint64
		found   bool
	)
	for id, item := range s.cache.Items() {
		view, ok := item.Object.(*View)
		if !ok {
			s.cache.Delete(id)
			return true
		}
		if t := view.touched.Load(); !found || t < oldest {
			stalest, oldest, found = id, t, true
		}
	}
	if !found {
		return false
	}
	s.cache.Delete(stalest)
	return true
}

// Lookup resolves a handle to its view.
func (s *Store) Lookup(handle string) (*View, error) {
	var id string
	if err := s.codec.Decode(handleName, handle, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	item, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrViewNotFound
	}
	view, ok := item.(*View)
	if !ok {
		return nil, ErrViewNotFound
	}
	return view, nil
}

// Dispatch applies ev to the view behind handle and returns the resulting
// snapshot. Events for one view are applied one at a time in arrival order.
// When the transition fails the returned snapshot is the unchanged state.
func (s *Store) Dispatch(ctx context.Context, handle string, ev uistate.Event) (uistate.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "views.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("ui.event", string(ev.Kind)), attribute.Int("ui.index", ev.Index))

	view, err := s.Lookup(handle)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return uistate.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.count(ctx, ev, "rejected")
		return uistate.Snapshot{}, err
	}

	view.mu.Lock()
	applyErr := view.page.Apply(ev)
	snap := view.page.Snapshot()
	view.mu.Unlock()

	s.touch(view)
	s.cache.Set(view.ID, view, cache.DefaultExpiration)

	outcome := "applied"
	if applyErr != nil {
		outcome = "rejected"
	}
	s.count(ctx, ev, outcome)

	if applyErr != nil {
		span.SetStatus(codes.Error, applyErr.Error())
		return snap, applyErr
	}
	return snap, nil
}

func (s *Store) count(ctx context.Context, ev uistate.Event, outcome string) {
	s.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ui.event", string(ev.Kind)),
		attribute.String("outcome", outcome),
	))
}

// Snapshot returns the current state of the view behind handle.
func (s *Store) Snapshot(handle string) (uistate.Snapshot, error) {
	view, err := s.Lookup(handle)
	if err != nil {
		return uistate.Snapshot{}, err
	}
	return view.Snapshot(), nil
}

// Len returns the number of live views.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
