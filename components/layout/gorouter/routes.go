package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/components/layout/commands"
	"github.com/goliatone/go-gridlayout/components/layout/httpapi"
)

// Config wires go-router with the layout executor and broadcast hook.
type Config[T any] struct {
	Router    router.Router[T]
	API       httpapi.Executor
	Broadcast *layout.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for layout endpoints. Session
// paths must carry :client and :page parameters.
type RouteConfig struct {
	Session    string
	Saved      string
	Move       string
	Resize     string
	Reorder    string
	Visibility string
	Undo       string
	Redo       string
	Commit     string
	Discard    string
	WebSocket  string
}

// Register mounts layout routes (JSON REST and WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: executor is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/api/layouts"
	}

	group := cfg.Router.Group(base)
	api := cfg.API

	group.Get(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		snap, err := api.Snapshot(ctx.Context(), sessionFrom(ctx).Key())
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	group.Get(routes.Saved, router.WrapHandler(func(ctx router.Context) error {
		widgets, err := api.SavedLayout(ctx.Context(), sessionFrom(ctx).Key())
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, widgets)
	}))

	group.Post(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.OpenSessionInput
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		payload.SessionInput = sessionFrom(ctx)
		if err := api.OpenSession(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return respondSnapshot(ctx, api, payload.Key(), http.StatusCreated)
	}))

	group.Delete(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Reset(ctx.Context(), sessionFrom(ctx)); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "reset"})
	}))

	group.Post(routes.Move, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.MoveWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionInput = sessionFrom(ctx)
		return respond(ctx, api, payload.Key(), api.MoveWidget(ctx.Context(), payload))
	}))

	group.Post(routes.Resize, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ResizeWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionInput = sessionFrom(ctx)
		return respond(ctx, api, payload.Key(), api.ResizeWidget(ctx.Context(), payload))
	}))

	group.Post(routes.Reorder, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ReorderWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionInput = sessionFrom(ctx)
		return respond(ctx, api, payload.Key(), api.ReorderWidget(ctx.Context(), payload))
	}))

	group.Post(routes.Visibility, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SetVisibilityInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionInput = sessionFrom(ctx)
		return respond(ctx, api, payload.Key(), api.SetVisibility(ctx.Context(), payload))
	}))

	group.Post(routes.Undo, router.WrapHandler(func(ctx router.Context) error {
		payload := commands.HistoryInput{SessionInput: sessionFrom(ctx)}
		return respond(ctx, api, payload.Key(), api.StepHistory(ctx.Context(), payload))
	}))

	group.Post(routes.Redo, router.WrapHandler(func(ctx router.Context) error {
		payload := commands.HistoryInput{SessionInput: sessionFrom(ctx), Redo: true}
		return respond(ctx, api, payload.Key(), api.StepHistory(ctx.Context(), payload))
	}))

	group.Post(routes.Commit, router.WrapHandler(func(ctx router.Context) error {
		in := sessionFrom(ctx)
		if err := api.Commit(ctx.Context(), in); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "committed"})
	}))

	group.Post(routes.Discard, router.WrapHandler(func(ctx router.Context) error {
		in := sessionFrom(ctx)
		return respond(ctx, api, in.Key(), api.Discard(ctx.Context(), in))
	}))

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerWebSocket[T any](r router.Router[T], hook *layout.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		err := hook.Stream(ws.Context(), ws.Query("client_id"), func(event layout.LayoutEvent) error {
			return ws.WriteJSON(event)
		})
		if err != nil {
			return err
		}
		return ws.Close()
	})
}

func sessionFrom(ctx router.Context) commands.SessionInput {
	return commands.SessionInput{
		ClientID: ctx.Param("client"),
		PageID:   ctx.Param("page"),
	}
}

func respond(ctx router.Context, api httpapi.Executor, key layout.PageKey, err error) error {
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return respondSnapshot(ctx, api, key, http.StatusOK)
}

func respondSnapshot(ctx router.Context, api httpapi.Executor, key layout.PageKey, status int) error {
	snap, err := api.Snapshot(ctx.Context(), key)
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(status, snap)
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Session == "" {
		routes.Session = "/:client/:page"
	}
	if routes.Saved == "" {
		routes.Saved = "/:client/:page/saved"
	}
	if routes.Move == "" {
		routes.Move = "/:client/:page/move"
	}
	if routes.Resize == "" {
		routes.Resize = "/:client/:page/resize"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/:client/:page/reorder"
	}
	if routes.Visibility == "" {
		routes.Visibility = "/:client/:page/visibility"
	}
	if routes.Undo == "" {
		routes.Undo = "/:client/:page/undo"
	}
	if routes.Redo == "" {
		routes.Redo = "/:client/:page/redo"
	}
	if routes.Commit == "" {
		routes.Commit = "/:client/:page/commit"
	}
	if routes.Discard == "" {
		routes.Discard = "/:client/:page/discard"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
