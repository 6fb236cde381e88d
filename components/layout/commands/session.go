package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridlayout/components/layout"
)

// SessionInput addresses one (client, page) editing session.
type SessionInput struct {
	ClientID string `json:"client_id"`
	PageID   string `json:"page_id"`
}

// Key returns the session key.
func (in SessionInput) Key() layout.PageKey {
	return layout.PageKey{ClientID: in.ClientID, PageID: in.PageID}
}

type sessionProvider interface {
	Session(key layout.PageKey) (*layout.Store, bool)
}

func lookupSession(sessions sessionProvider, in SessionInput) (*layout.Store, error) {
	key := in.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}
	store, ok := sessions.Session(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", layout.ErrSessionNotFound, key)
	}
	return store, nil
}

// OpenSessionInput opens an editing session. Definitions may be omitted when
// the command has a definition source for the page.
type OpenSessionInput struct {
	SessionInput
	Definitions []layout.WidgetDefinition `json:"definitions,omitempty"`
}

type openService interface {
	OpenSession(ctx context.Context, key layout.PageKey, defs []layout.WidgetDefinition) (*layout.Store, error)
}

type definitionSource interface {
	Definitions(pageID string) ([]layout.WidgetDefinition, bool)
}

// OpenSessionCommand loads and merges the saved layout for a page.
type OpenSessionCommand struct {
	service     openService
	definitions definitionSource
	telemetry   Telemetry
}

// NewOpenSessionCommand creates the command. definitions may be nil.
func NewOpenSessionCommand(service openService, definitions definitionSource, telemetry Telemetry) *OpenSessionCommand {
	return &OpenSessionCommand{service: service, definitions: definitions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenSessionInput] = (*OpenSessionCommand)(nil)

// Execute opens the session.
func (c *OpenSessionCommand) Execute(ctx context.Context, msg OpenSessionInput) error {
	if c.service == nil {
		return errors.New("open session command requires service")
	}
	defs := msg.Definitions
	if len(defs) == 0 && c.definitions != nil {
		registered, ok := c.definitions.Definitions(msg.PageID)
		if !ok {
			return fmt.Errorf("open session command: page %q has no registered definitions", msg.PageID)
		}
		defs = registered
	} else if len(defs) > 0 {
		normalized, err := layout.NormalizeDefinitions(defs)
		if err != nil {
			return err
		}
		if err := layout.ValidateDefinitions(normalized); err != nil {
			return err
		}
		defs = normalized
	}
	if _, err := c.service.OpenSession(ctx, msg.Key(), defs); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.open", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"widgets":   len(defs),
	})
	return nil
}

// CommitLayoutCommand persists pending changes for a session.
type CommitLayoutCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewCommitLayoutCommand creates the command.
func NewCommitLayoutCommand(sessions sessionProvider, telemetry Telemetry) *CommitLayoutCommand {
	return &CommitLayoutCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SessionInput] = (*CommitLayoutCommand)(nil)

// Execute commits the session.
func (c *CommitLayoutCommand) Execute(ctx context.Context, msg SessionInput) error {
	if c.sessions == nil {
		return errors.New("commit command requires service")
	}
	store, err := lookupSession(c.sessions, msg)
	if err != nil {
		return err
	}
	pending := len(store.PendingChanges())
	if err := store.CommitChanges(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.commit", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"changes":   pending,
	})
	return nil
}

// DiscardLayoutCommand reverts a session to its committed baseline.
type DiscardLayoutCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewDiscardLayoutCommand creates the command.
func NewDiscardLayoutCommand(sessions sessionProvider, telemetry Telemetry) *DiscardLayoutCommand {
	return &DiscardLayoutCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SessionInput] = (*DiscardLayoutCommand)(nil)

// Execute discards pending changes.
func (c *DiscardLayoutCommand) Execute(ctx context.Context, msg SessionInput) error {
	if c.sessions == nil {
		return errors.New("discard command requires service")
	}
	store, err := lookupSession(c.sessions, msg)
	if err != nil {
		return err
	}
	store.DiscardChanges()
	c.telemetry.Record(ctx, "layout.command.discard", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
	})
	return nil
}

type resetService interface {
	ResetLayout(ctx context.Context, key layout.PageKey) error
}

// ResetLayoutCommand deletes the saved layout so the page auto-flows again.
type ResetLayoutCommand struct {
	service   resetService
	telemetry Telemetry
}

// NewResetLayoutCommand creates the command.
func NewResetLayoutCommand(service resetService, telemetry Telemetry) *ResetLayoutCommand {
	return &ResetLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SessionInput] = (*ResetLayoutCommand)(nil)

// Execute resets the layout.
func (c *ResetLayoutCommand) Execute(ctx context.Context, msg SessionInput) error {
	if c.service == nil {
		return errors.New("reset command requires service")
	}
	if err := c.service.ResetLayout(ctx, msg.Key()); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.reset", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
	})
	return nil
}
