package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/pkg/storage/diskvstore"
)

const overviewManifest = `version: "1"
pages:
  - id: overview
    widgets:
      - id: kpis
        type: kpi-section
        width: 12
        height: 200
      - id: funnel
        type: funnel-chart
        width: 6
        height: 300
      - id: graph
        type: graph-card
        width: 6
        height: 300
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gridlayout.yaml", `
addr: ":8080"
store:
  driver: sqlite
  dsn: /tmp/layouts.db
log:
  level: debug
`)
	t.Setenv("GRIDLAYOUT_STORE_DRIVER", "postgres")
	t.Setenv("GRIDLAYOUT_UNDO_DEPTH", "5")
	t.Setenv("GRIDLAYOUT_STORE_CACHE_TTL", "30s")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Store.Driver, "env overrides file")
	assert.Equal(t, "/tmp/layouts.db", cfg.Store.DSN)
	assert.Equal(t, 5, cfg.UndoDepth)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/api/layouts", cfg.BasePath)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlaceWritesAutoFlowLayout(t *testing.T) {
	manifest := writeFile(t, t.TempDir(), "pages.yaml", overviewManifest)
	var out bytes.Buffer
	cmd := placeCmd{PageSource: PageSource{Manifest: manifest, Page: "overview"}, Density: "compact"}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}, &stdio{out: &out, err: io.Discard}))

	var cfg layout.PageLayoutConfig
	require.NoError(t, json.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, layout.DensityCompact, cfg.GridDensity)
	require.Len(t, cfg.Widgets, 3)
	assert.Equal(t, []int{0, 1, 1}, []int{cfg.Widgets[0].Row, cfg.Widgets[1].Row, cfg.Widgets[2].Row})
	assert.Equal(t, 6, cfg.Widgets[2].Col)
}

func TestPlaceUnknownPage(t *testing.T) {
	manifest := writeFile(t, t.TempDir(), "pages.yaml", overviewManifest)
	cmd := placeCmd{PageSource: PageSource{Manifest: manifest, Page: "missing"}}
	err := cmd.Run(context.Background(), &Globals{}, &stdio{out: io.Discard, err: io.Discard})
	assert.ErrorContains(t, err, "missing")
}

func TestMigrateFileRewritesLegacyDocument(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "legacy.json", `{
		"widgetOrder": ["graph"],
		"hiddenWidgets": [],
		"widgetPositions": {"graph": {"order": 0, "gridRow": 0, "gridColumn": 0, "gridWidth": 4, "gridHeight": 250}}
	}`)
	out := filepath.Join(dir, "current.json")
	cmd := migrateCmd{In: in, Out: out, Density: "normal"}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}, &stdio{out: io.Discard, err: io.Discard}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var record layout.StoredLayout
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, layout.CurrentVersion, record.Version)
	require.Len(t, record.Widgets, 1)
	assert.Equal(t, 4, record.Widgets[0].Width)
	assert.Equal(t, []string{"graph"}, record.WidgetOrder)
}

func TestMigrateRepository(t *testing.T) {
	ctx := context.Background()
	store, err := diskvstore.New(t.TempDir())
	require.NoError(t, err)
	key := layout.PageKey{ClientID: "acme", PageID: "overview"}
	require.NoError(t, store.SaveLayout(ctx, key, layout.PageLayoutConfig{
		Widgets: []layout.WidgetPosition{{WidgetID: "a", WidgetType: layout.WidgetKPICard, Width: 3, Height: 150}},
	}))

	var out bytes.Buffer
	require.NoError(t, migrateRepository(ctx, diskvLister{store}, true, &out))
	assert.Contains(t, out.String(), "would migrate acme::overview")

	out.Reset()
	require.NoError(t, migrateRepository(ctx, diskvLister{store}, false, &out))
	assert.Contains(t, out.String(), "migrated 1 of 1")
}

func TestMigrateRepositoryRequiresLister(t *testing.T) {
	err := migrateRepository(context.Background(), layout.NewInMemoryRepository(), false, io.Discard)
	assert.Error(t, err)
}

func TestOpenRepositoryDrivers(t *testing.T) {
	ctx := context.Background()
	repo, closeFn, err := openRepository(ctx, StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.IsType(t, &layout.InMemoryRepository{}, repo)

	repo, closeFn, err = openRepository(ctx, StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "layouts")})
	require.NoError(t, err)
	assert.NotNil(t, repo)
	require.NoError(t, closeFn())

	_, _, err = openRepository(ctx, StoreConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestPreviewRendersMergedLayout(t *testing.T) {
	manifest := writeFile(t, t.TempDir(), "pages.yaml", overviewManifest)
	var out bytes.Buffer
	cmd := previewCmd{PageSource: PageSource{Manifest: manifest, Page: "overview"}, ColumnWidth: 6}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}, &stdio{out: &out, err: io.Discard}))
	for _, id := range []string{"overview", "kpis", "funnel", "graph"} {
		assert.Contains(t, out.String(), id)
	}
}

func TestNewLoggerWritesToRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "layoutctl.log")
	logger, closeFn, err := newLogger(LogConfig{Level: "debug", Format: "json", File: file, MaxSizeMB: 1}, io.Discard)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestWatchManifestReloadsRegistry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pages.yaml", overviewManifest)
	registry := layout.NewRegistry()
	_, err := registry.LoadManifestFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watchManifest(ctx, path, registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	time.Sleep(100 * time.Millisecond)
	updated := strings.Replace(overviewManifest, "- id: overview", "- id: campaigns", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		_, ok := registry.Definitions("campaigns")
		return ok
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestEventsMuxStreamsTenantEvents(t *testing.T) {
	hook := layout.NewBroadcastHook()
	srv := httptest.NewServer(eventsMux(hook))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?client_id=acme", nil)
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- line
				return
			}
		}
	}()

	var got string
	require.Eventually(t, func() bool {
		_ = hook.LayoutUpdated(ctx, layout.LayoutEvent{Key: layout.PageKey{ClientID: "globex", PageID: "overview"}, Reason: "commit"})
		_ = hook.LayoutUpdated(ctx, layout.LayoutEvent{Key: layout.PageKey{ClientID: "acme", PageID: "overview"}, Reason: "commit"})
		select {
		case got = <-lines:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	assert.Contains(t, got, `"client_id":"acme"`)
	assert.NotContains(t, got, "globex")
}

func TestStopServerEndsServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	server := router.NewFiberAdapter()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(addr)
	}()
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, stopServer(server, serveErr, 2*time.Second))

	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}
