package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrWidgetNotFound    = errors.New("layout: widget not found")
	ErrUnknownWidgetType = errors.New("layout: unknown widget type")
	ErrInvalidKey        = errors.New("layout: client id and page id are required")
	ErrNoSaveCallback    = errors.New("layout: no save callback registered")
	ErrSessionNotFound   = errors.New("layout: editing session not found")
	ErrResizeInProgress  = errors.New("layout: resize already in progress")
	ErrInvalidDirection  = errors.New("layout: invalid resize direction")
	ErrMissingRepository = errors.New("layout: repository not configured")
	ErrInvalidInput      = errors.New("layout: invalid input")
)

// Options configures the layout Service. Collaborators are interfaces so hosts
// can plug their own persistence and observability.
type Options struct {
	Repository Repository
	ChangeHook ChangeHook
	Telemetry  Telemetry
	Logger     *slog.Logger
	UndoDepth  int
}

// Service opens editing sessions per (client, page) and connects each Layout
// Store to the repository.
type Service struct {
	opts Options

	mu       sync.RWMutex
	sessions map[PageKey]*Store
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Repository == nil {
		opts.Repository = NewInMemoryRepository()
	}
	if opts.ChangeHook == nil {
		opts.ChangeHook = noopChangeHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.UndoDepth <= 0 {
		opts.UndoDepth = DefaultUndoDepth
	}
	return &Service{
		opts:     opts,
		sessions: make(map[PageKey]*Store),
	}
}

// FetchLayout loads the saved layout for key. Read failures are logged and
// reported as "no saved layout" so the page falls back to auto-flow.
func (s *Service) FetchLayout(ctx context.Context, key PageKey) *PageLayoutConfig {
	cfg, err := s.opts.Repository.FetchLayout(ctx, key)
	if err != nil {
		s.opts.Logger.Warn("layout fetch failed, using auto-flow",
			slog.String("client_id", key.ClientID),
			slog.String("page_id", key.PageID),
			slog.Any("error", err),
		)
		return nil
	}
	return cfg
}

// SaveLayout persists cfg and notifies the change hook.
func (s *Service) SaveLayout(ctx context.Context, key PageKey, cfg PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.opts.Repository.SaveLayout(ctx, key, cfg); err != nil {
		s.opts.Logger.Error("layout save failed",
			slog.String("client_id", key.ClientID),
			slog.String("page_id", key.PageID),
			slog.Any("error", err),
		)
		return fmt.Errorf("layout: save %s: %w", key, err)
	}
	s.notify(ctx, LayoutEvent{Key: key, Layout: cfg, Reason: "commit"})
	return nil
}

// OpenSession loads the saved layout, merges it with definitions and returns a
// store wired to persist through the repository. An existing session for the
// same key is replaced.
func (s *Service) OpenSession(ctx context.Context, key PageKey, definitions []WidgetDefinition) (*Store, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	saved := s.FetchLayout(ctx, key)
	store := NewStore(StoreOptions{
		Key:       key,
		UndoDepth: s.opts.UndoDepth,
		Telemetry: s.opts.Telemetry,
		Logger:    s.opts.Logger,
	})
	store.InitializeLayout(definitions, saved)
	store.RegisterSaveCallback(func(ctx context.Context, cfg PageLayoutConfig) error {
		return s.SaveLayout(ctx, key, cfg)
	})

	s.mu.Lock()
	s.sessions[key] = store
	s.mu.Unlock()

	version := 0
	if saved != nil {
		version = saved.Version
	}
	s.opts.Telemetry.Record(ctx, EventSessionOpen, map[string]any{
		"client_id":     key.ClientID,
		"page_id":       key.PageID,
		"widgets":       len(definitions),
		"saved":         saved != nil,
		"saved_version": version,
	})
	return store, nil
}

// Session returns the open store for key.
func (s *Service) Session(key PageKey) (*Store, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.sessions[key]
	return store, ok
}

// CloseSession forgets the store for key. Uncommitted changes are lost.
func (s *Service) CloseSession(key PageKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// ResetLayout deletes the saved layout. An open session is re-initialized
// with auto-flow placement for its definitions.
func (s *Service) ResetLayout(ctx context.Context, key PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.opts.Repository.ResetLayout(ctx, key); err != nil {
		return fmt.Errorf("layout: reset %s: %w", key, err)
	}
	var cfg PageLayoutConfig
	if store, ok := s.Session(key); ok {
		store.InitializeLayout(store.definitionList(), nil)
		cfg = Flatten(store.Widgets(), DensityNormal)
	}
	s.opts.Telemetry.Record(ctx, EventReset, map[string]any{
		"client_id": key.ClientID,
		"page_id":   key.PageID,
	})
	s.notify(ctx, LayoutEvent{Key: key, Layout: cfg, Reason: "reset"})
	return nil
}

func (s *Service) notify(ctx context.Context, event LayoutEvent) {
	if err := s.opts.ChangeHook.LayoutUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("layout change hook failed",
			slog.String("reason", event.Reason),
			slog.Any("error", err),
		)
	}
}
