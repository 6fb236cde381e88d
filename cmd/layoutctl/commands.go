package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/pkg/preview"
)

type stdio struct {
	out io.Writer
	err io.Writer
}

// PageSource resolves definitions from a manifest page.
type PageSource struct {
	Manifest string `required:"" type:"existingfile" help:"Page manifest (YAML or JSON)."`
	Page     string `required:"" help:"Page id within the manifest."`
}

func (p PageSource) definitions() ([]layout.WidgetDefinition, error) {
	registry := layout.NewRegistry()
	if _, err := registry.LoadManifestFile(p.Manifest); err != nil {
		return nil, err
	}
	defs, ok := registry.Definitions(p.Page)
	if !ok {
		return nil, fmt.Errorf("layoutctl: page %q not found in %s", p.Page, p.Manifest)
	}
	return defs, nil
}

type placeCmd struct {
	PageSource
	Density string `default:"normal" enum:"compact,normal,spacious" help:"Grid density recorded in the output."`
}

func (cmd *placeCmd) Run(_ context.Context, _ *Globals, std *stdio) error {
	defs, err := cmd.definitions()
	if err != nil {
		return err
	}
	cfg := layout.Flatten(layout.AutoFlow(defs), layout.ParseGridDensity(cmd.Density))
	return writeJSON(std.out, cfg)
}

type mergeCmd struct {
	PageSource
	Saved string `required:"" type:"existingfile" help:"Stored layout_config document (current or legacy shape)."`
}

func (cmd *mergeCmd) Run(_ context.Context, _ *Globals, std *stdio) error {
	defs, err := cmd.definitions()
	if err != nil {
		return err
	}
	saved, err := readStoredLayout(cmd.Saved, layout.DensityNormal)
	if err != nil {
		return err
	}
	return writeJSON(std.out, layout.MergeLayout(saved, defs))
}

type migrateCmd struct {
	In      string `type:"existingfile" help:"Migrate a single document instead of the configured store."`
	Out     string `type:"path" help:"Output file for --in (defaults to stdout)."`
	Density string `default:"normal" enum:"compact,normal,spacious" help:"Density assumed for --in documents."`
	DryRun  bool   `name:"dry-run" help:"List the pages that would be rewritten."`
}

func (cmd *migrateCmd) Run(ctx context.Context, g *Globals, std *stdio) error {
	if cmd.In != "" {
		return cmd.migrateFile(std)
	}
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}
	repo, closeRepo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeRepo()
	return migrateRepository(ctx, repo, cmd.DryRun, std.out)
}

func (cmd *migrateCmd) migrateFile(std *stdio) error {
	cfg, err := readStoredLayout(cmd.In, layout.ParseGridDensity(cmd.Density))
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("layoutctl: %s holds no usable layout", cmd.In)
	}
	if cfg.Version == 0 {
		cfg.Version = layout.CurrentVersion
	}
	data, err := json.MarshalIndent(layout.EncodeStoredLayout(*cfg), "", "  ")
	if err != nil {
		return err
	}
	if cmd.Out == "" {
		_, err = fmt.Fprintln(std.out, string(data))
		return err
	}
	return os.WriteFile(cmd.Out, append(data, '\n'), 0o644)
}

// migrateRepository re-saves every stored page so legacy documents are
// rewritten with both the current and legacy fields.
func migrateRepository(ctx context.Context, repo layout.Repository, dryRun bool, out io.Writer) error {
	lister, ok := repo.(keyLister)
	if !ok {
		return fmt.Errorf("layoutctl: store does not support listing layouts")
	}
	keys, err := lister.Keys(ctx)
	if err != nil {
		return err
	}
	migrated := 0
	for _, key := range keys {
		cfg, err := repo.FetchLayout(ctx, key)
		if err != nil {
			return err
		}
		if cfg == nil {
			continue
		}
		if dryRun {
			fmt.Fprintf(out, "would migrate %s (%d widgets)\n", key, len(cfg.Widgets))
			continue
		}
		if cfg.Version == 0 {
			cfg.Version = layout.CurrentVersion
		}
		if err := repo.SaveLayout(ctx, key, *cfg); err != nil {
			return err
		}
		migrated++
	}
	if !dryRun {
		fmt.Fprintf(out, "migrated %d of %d layouts\n", migrated, len(keys))
	}
	return nil
}

type previewCmd struct {
	PageSource
	Saved       string `type:"existingfile" help:"Stored layout to merge before rendering."`
	ColumnWidth int    `name:"column-width" default:"8" help:"Terminal cells per grid column."`
	ShowHidden  bool   `name:"show-hidden" help:"List hidden widgets under the grid."`
}

func (cmd *previewCmd) Run(_ context.Context, _ *Globals, std *stdio) error {
	defs, err := cmd.definitions()
	if err != nil {
		return err
	}
	var saved *layout.PageLayoutConfig
	if cmd.Saved != "" {
		if saved, err = readStoredLayout(cmd.Saved, layout.DensityNormal); err != nil {
			return err
		}
	}
	widgets := layout.MergeLayout(saved, defs)
	_, err = fmt.Fprintln(std.out, preview.Render(widgets, preview.Options{
		ColumnWidth: cmd.ColumnWidth,
		Title:       cmd.Page,
		ShowHidden:  cmd.ShowHidden,
	}))
	return err
}

func readStoredLayout(path string, density layout.GridDensity) (*layout.PageLayoutConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("layoutctl: read %s: %w", path, err)
	}
	return layout.DecodeStoredLayout(data, density)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
