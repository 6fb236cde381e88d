package queries

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridlayout/components/layout"
)

type sessionProvider interface {
	Session(key layout.PageKey) (*layout.Store, bool)
}

// SessionQuery returns the working state of an open editing session.
type SessionQuery struct {
	sessions sessionProvider
}

// NewSessionQuery builds the query.
func NewSessionQuery(sessions sessionProvider) *SessionQuery {
	return &SessionQuery{sessions: sessions}
}

var _ gocommand.Querier[layout.PageKey, layout.SessionSnapshot] = (*SessionQuery)(nil)

// Query resolves the snapshot for key.
func (q *SessionQuery) Query(_ context.Context, key layout.PageKey) (layout.SessionSnapshot, error) {
	if err := key.Validate(); err != nil {
		return layout.SessionSnapshot{}, err
	}
	store, ok := q.sessions.Session(key)
	if !ok {
		return layout.SessionSnapshot{}, fmt.Errorf("%w: %s", layout.ErrSessionNotFound, key)
	}
	return store.Snapshot(), nil
}
