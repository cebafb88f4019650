// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes every entry matching f to path as a YAML list. The limit
// in f is ignored.
func (s *Store) ExportYAML(ctx context.Context, f Filter, path string) (int, error) {
	f.Limit = -1
	entries, err := s.List(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing export: %w", err)
	}
	return len(entries), nil
}
