package queries

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridlayout/components/layout"
)

// SavedLayoutInput resolves the layout a page would open with. Definitions
// fall back to the registered page when empty.
type SavedLayoutInput struct {
	Key         layout.PageKey
	Definitions []layout.WidgetDefinition
}

type layoutFetcher interface {
	FetchLayout(ctx context.Context, key layout.PageKey) *layout.PageLayoutConfig
}

type definitionSource interface {
	Definitions(pageID string) ([]layout.WidgetDefinition, bool)
}

// SavedLayoutQuery merges the persisted layout with definitions without
// opening an editing session.
type SavedLayoutQuery struct {
	service     layoutFetcher
	definitions definitionSource
}

// NewSavedLayoutQuery builds the query. definitions may be nil.
func NewSavedLayoutQuery(service layoutFetcher, definitions definitionSource) *SavedLayoutQuery {
	return &SavedLayoutQuery{service: service, definitions: definitions}
}

var _ gocommand.Querier[SavedLayoutInput, []layout.WidgetPosition] = (*SavedLayoutQuery)(nil)

// Query returns the merged widget positions.
func (q *SavedLayoutQuery) Query(ctx context.Context, in SavedLayoutInput) ([]layout.WidgetPosition, error) {
	if err := in.Key.Validate(); err != nil {
		return nil, err
	}
	defs := in.Definitions
	if len(defs) == 0 && q.definitions != nil {
		registered, ok := q.definitions.Definitions(in.Key.PageID)
		if !ok {
			return nil, fmt.Errorf("saved layout query: page %q has no registered definitions", in.Key.PageID)
		}
		defs = registered
	}
	saved := q.service.FetchLayout(ctx, in.Key)
	return layout.MergeLayout(saved, defs), nil
}
