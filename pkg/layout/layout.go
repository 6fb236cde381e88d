package layout

import (
	core "github.com/goliatone/go-gridlayout/components/layout"
)

// Service exposes the underlying components/layout.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Store is a single editing session.
type Store = core.Store

// PageKey identifies a (client, page) pair.
type PageKey = core.PageKey

// WidgetDefinition and WidgetPosition re-exports.
type (
	WidgetDefinition = core.WidgetDefinition
	WidgetPosition   = core.WidgetPosition
	PageLayoutConfig = core.PageLayoutConfig
	Repository       = core.Repository
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewInMemoryRepository proxies to the in-process repository.
func NewInMemoryRepository() *core.InMemoryRepository {
	return core.NewInMemoryRepository()
}
