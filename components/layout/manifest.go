package layout

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// PageManifestDocument describes the widget definitions of every report page
// in YAML or JSON.
type PageManifestDocument struct {
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Pages   []ManifestPage `json:"pages" yaml:"pages"`
	Source  string         `json:"-" yaml:"-"`
}

// ManifestPage lists the widgets of one page in definition order.
type ManifestPage struct {
	ID      string             `json:"id" yaml:"id"`
	Name    string             `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []WidgetDefinition `json:"widgets" yaml:"widgets"`
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*PageManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("layout: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("layout: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*PageManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc PageManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("layout: manifest is empty")
		}
		return nil, fmt.Errorf("layout: parse manifest: %w", err)
	}
	if err := doc.applyDefaults(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *PageManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("layout: unsupported manifest version %q", doc.Version)
	}
	pages := make(map[string]struct{}, len(doc.Pages))
	for idx, page := range doc.Pages {
		if page.ID == "" {
			return fmt.Errorf("layout: manifest page at index %d is missing id", idx)
		}
		if _, exists := pages[page.ID]; exists {
			return fmt.Errorf("layout: manifest duplicates page %s", page.ID)
		}
		pages[page.ID] = struct{}{}
		if err := ValidateDefinitions(page.Widgets); err != nil {
			return fmt.Errorf("layout: page %s: %w", page.ID, err)
		}
	}
	return nil
}

// ValidateDefinitions checks ids are unique, types are known and default
// widths fit the grid.
func ValidateDefinitions(defs []WidgetDefinition) error {
	seen := make(map[string]struct{}, len(defs))
	for idx, def := range defs {
		if def.WidgetID == "" {
			return fmt.Errorf("widget at index %d is missing id", idx)
		}
		if _, exists := seen[def.WidgetID]; exists {
			return fmt.Errorf("duplicate widget id %s", def.WidgetID)
		}
		seen[def.WidgetID] = struct{}{}
		if !def.WidgetType.Valid() {
			return fmt.Errorf("widget %s: %w: %q", def.WidgetID, ErrUnknownWidgetType, def.WidgetType)
		}
		if def.DefaultWidth < 1 || def.DefaultWidth > GridColumns {
			return fmt.Errorf("widget %s: width %d outside 1..%d", def.WidgetID, def.DefaultWidth, GridColumns)
		}
	}
	return nil
}

// NormalizeDefinitions canonicalizes widget type spellings and fills missing
// sizes from the type minimum.
func NormalizeDefinitions(defs []WidgetDefinition) ([]WidgetDefinition, error) {
	out := make([]WidgetDefinition, len(defs))
	for idx, def := range defs {
		kind, err := ParseWidgetType(string(def.WidgetType))
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", def.WidgetID, err)
		}
		def.WidgetType = kind
		floor := kind.MinSize()
		if def.DefaultWidth == 0 {
			def.DefaultWidth = floor.Width
		}
		if def.DefaultHeight < floor.Height {
			def.DefaultHeight = floor.Height
		}
		out[idx] = def
	}
	return out, nil
}

func (doc *PageManifestDocument) applyDefaults() error {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for idx := range doc.Pages {
		defs, err := NormalizeDefinitions(doc.Pages[idx].Widgets)
		if err != nil {
			return fmt.Errorf("layout: page %s: %w", doc.Pages[idx].ID, err)
		}
		doc.Pages[idx].Widgets = defs
	}
	return nil
}
