// Package diskvstore keeps layouts as JSON files under a base directory,
// one directory per client and one file per page.
package diskvstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/goliatone/go-gridlayout/components/layout"
)

const keySeparator = "~"

type envelope struct {
	GridDensity  layout.GridDensity `json:"gridDensity"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	LayoutConfig json.RawMessage    `json:"layoutConfig"`
}

// Store implements layout.Repository on diskv.
type Store struct {
	d   *diskv.Diskv
	now func() time.Time
}

var _ layout.Repository = (*Store)(nil)

// New opens (or creates lazily) a store rooted at basePath.
func New(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("diskvstore: base path is required")
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024,
		}),
		now: time.Now,
	}, nil
}

func (s *Store) FetchLayout(_ context.Context, key layout.PageKey) (*layout.PageLayoutConfig, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	data, err := s.d.Read(toKey(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("diskvstore: read %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("diskvstore: decode %s: %w", key, err)
	}
	cfg, err := layout.DecodeStoredLayout(env.LayoutConfig, env.GridDensity)
	if err != nil {
		return nil, fmt.Errorf("diskvstore: decode %s: %w", key, err)
	}
	return cfg, nil
}

func (s *Store) SaveLayout(_ context.Context, key layout.PageKey, cfg layout.PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	doc, err := layout.MarshalStoredLayout(cfg)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{
		GridDensity:  layout.ParseGridDensity(string(cfg.GridDensity)),
		UpdatedAt:    s.now().UTC(),
		LayoutConfig: doc,
	})
	if err != nil {
		return fmt.Errorf("diskvstore: encode %s: %w", key, err)
	}
	if err := s.d.Write(toKey(key), data); err != nil {
		return fmt.Errorf("diskvstore: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) ResetLayout(_ context.Context, key layout.PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	err := s.d.Erase(toKey(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("diskvstore: erase %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored page key.
func (s *Store) Keys(ctx context.Context) []layout.PageKey {
	keys := make([]layout.PageKey, 0)
	for raw := range s.d.Keys(ctx.Done()) {
		key, ok := fromKey(raw)
		if !ok {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func toKey(key layout.PageKey) string {
	return encodePart(key.ClientID) + keySeparator + encodePart(key.PageID)
}

func fromKey(raw string) (layout.PageKey, bool) {
	client, page, ok := strings.Cut(raw, keySeparator)
	if !ok {
		return layout.PageKey{}, false
	}
	clientID, err := base64.RawURLEncoding.DecodeString(client)
	if err != nil {
		return layout.PageKey{}, false
	}
	pageID, err := base64.RawURLEncoding.DecodeString(page)
	if err != nil {
		return layout.PageKey{}, false
	}
	return layout.PageKey{ClientID: string(clientID), PageID: string(pageID)}, true
}

func encodePart(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func keyToPathTransform(s string) *diskv.PathKey {
	client, page, ok := strings.Cut(s, keySeparator)
	if !ok {
		return &diskv.PathKey{FileName: s}
	}
	return &diskv.PathKey{
		Path:     []string{client},
		FileName: page + ".json",
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	page := strings.TrimSuffix(pathKey.FileName, ".json")
	if len(pathKey.Path) == 0 {
		return page
	}
	return strings.Join(pathKey.Path, "") + keySeparator + page
}
