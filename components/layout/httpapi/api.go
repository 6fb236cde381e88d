package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/components/layout/commands"
	"github.com/goliatone/go-gridlayout/components/layout/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands. Every handler
// takes the client and page id from the route.
type Handlers struct {
	Open       gocommand.Commander[commands.OpenSessionInput]
	Move       gocommand.Commander[commands.MoveWidgetInput]
	Resize     gocommand.Commander[commands.ResizeWidgetInput]
	Reorder    gocommand.Commander[commands.ReorderWidgetInput]
	Visibility gocommand.Commander[commands.SetVisibilityInput]
	History    gocommand.Commander[commands.HistoryInput]
	Commit     gocommand.Commander[commands.SessionInput]
	Discard    gocommand.Commander[commands.SessionInput]
	Reset      gocommand.Commander[commands.SessionInput]
	Session    gocommand.Querier[layout.PageKey, layout.SessionSnapshot]
	Saved      gocommand.Querier[queries.SavedLayoutInput, []layout.WidgetPosition]
}

// StatusFor maps layout errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, layout.ErrSessionNotFound), errors.Is(err, layout.ErrWidgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, layout.ErrInvalidKey), errors.Is(err, layout.ErrUnknownWidgetType),
		errors.Is(err, layout.ErrInvalidInput), errors.Is(err, layout.ErrInvalidDirection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func session(clientID, pageID string) commands.SessionInput {
	return commands.SessionInput{ClientID: clientID, PageID: pageID}
}

func (h *Handlers) HandleOpenSession(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	var payload commands.OpenSessionInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	payload.SessionInput = session(clientID, pageID)
	if err := h.Open.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	h.writeSnapshot(w, r, payload.Key(), http.StatusCreated)
}

func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	h.writeSnapshot(w, r, layout.PageKey{ClientID: clientID, PageID: pageID}, http.StatusOK)
}

// HandleSavedLayout returns the merged persisted layout without opening a
// session.
func (h *Handlers) HandleSavedLayout(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	if h.Saved == nil {
		http.Error(w, errNotConfigured.Error(), http.StatusNotImplemented)
		return
	}
	widgets, err := h.Saved.Query(r.Context(), queries.SavedLayoutInput{
		Key: layout.PageKey{ClientID: clientID, PageID: pageID},
	})
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(widgets)
}

func (h *Handlers) HandleMoveWidget(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	var payload commands.MoveWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionInput = session(clientID, pageID)
	h.execute(w, r, payload.Key(), h.Move.Execute(r.Context(), payload))
}

func (h *Handlers) HandleResizeWidget(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	var payload commands.ResizeWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionInput = session(clientID, pageID)
	h.execute(w, r, payload.Key(), h.Resize.Execute(r.Context(), payload))
}

func (h *Handlers) HandleReorderWidget(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	var payload commands.ReorderWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionInput = session(clientID, pageID)
	h.execute(w, r, payload.Key(), h.Reorder.Execute(r.Context(), payload))
}

func (h *Handlers) HandleSetVisibility(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	var payload commands.SetVisibilityInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionInput = session(clientID, pageID)
	h.execute(w, r, payload.Key(), h.Visibility.Execute(r.Context(), payload))
}

func (h *Handlers) HandleUndo(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	payload := commands.HistoryInput{SessionInput: session(clientID, pageID)}
	h.execute(w, r, payload.Key(), h.History.Execute(r.Context(), payload))
}

func (h *Handlers) HandleRedo(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	payload := commands.HistoryInput{SessionInput: session(clientID, pageID), Redo: true}
	h.execute(w, r, payload.Key(), h.History.Execute(r.Context(), payload))
}

func (h *Handlers) HandleCommit(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	payload := session(clientID, pageID)
	if err := h.Commit.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleDiscard(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	payload := session(clientID, pageID)
	h.execute(w, r, payload.Key(), h.Discard.Execute(r.Context(), payload))
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request, clientID, pageID string) {
	if err := h.Reset.Execute(r.Context(), session(clientID, pageID)); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, key layout.PageKey, err error) {
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	h.writeSnapshot(w, r, key, http.StatusOK)
}

func (h *Handlers) writeSnapshot(w http.ResponseWriter, r *http.Request, key layout.PageKey, status int) {
	if h.Session == nil {
		w.WriteHeader(status)
		return
	}
	snap, err := h.Session.Query(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(snap)
}
