package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
)

// Globals are flags shared by every subcommand.
type Globals struct {
	Config   string `short:"c" type:"path" help:"Config file (defaults to .gridlayout.yaml in . or $HOME)."`
	LogLevel string `name:"log-level" help:"Override log.level from config."`
}

type cli struct {
	Globals

	Place   placeCmd   `cmd:"" help:"Auto-flow a page's widget definitions onto the grid."`
	Merge   mergeCmd   `cmd:"" help:"Merge a saved layout with the page's current definitions."`
	Migrate migrateCmd `cmd:"" help:"Rewrite stored layouts into the current document shape."`
	Preview previewCmd `cmd:"" help:"Render a layout as a terminal grid."`
	Serve   serveCmd   `cmd:"" help:"Serve the layout editing API."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("layoutctl"),
		kong.Description("Grid layout tooling for multi-tenant report pages."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Bind(&c.Globals, &stdio{out: os.Stdout, err: os.Stderr}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
