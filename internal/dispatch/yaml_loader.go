package dispatch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileSpec is the on-disk YAML shape for a user-defined registry entry.
type fileSpec struct {
	Kind        string   `yaml:"kind"` // "query" (default) or "tool"
	Keyword     string   `yaml:"keyword"`
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Script      string   `yaml:"script"`
	Args        []string `yaml:"args"`
	Functions   []string `yaml:"functions"`
}

// LoadDirectory merges user YAML definitions from dir into the registry.
// Files must have a .yaml or .yml extension. Entries override builtins with
// the same keyword/id. Malformed files are logged and skipped so one bad
// file cannot take the whole dispatcher down.
func LoadDirectory(dir string, registry *Registry, logger *slog.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("tools directory does not exist, skipping", "dir", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read tools dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read tool file", "path", path, "err", err)
			continue
		}

		var spec fileSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			logger.Warn("cannot parse tool file", "path", path, "err", err)
			continue
		}

		if strings.TrimSpace(spec.Script) == "" {
			logger.Warn("tool file missing script, skipping", "path", path)
			continue
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		switch spec.Kind {
		case "", "query":
			if spec.Keyword == "" {
				spec.Keyword = base
			}
			registry.RegisterQuery(QuerySpec{
				Keyword:     spec.Keyword,
				Description: spec.Description,
				Script:      spec.Script,
				Args:        spec.Args,
			})
			logger.Info("loaded user query", "keyword", spec.Keyword, "path", path)
		case "tool":
			if spec.ID == "" {
				spec.ID = base
			}
			registry.RegisterTool(ToolSpec{
				ID:          spec.ID,
				Description: spec.Description,
				Script:      spec.Script,
				Functions:   spec.Functions,
			})
			logger.Info("loaded user tool", "id", spec.ID, "path", path)
		default:
			logger.Warn("unknown kind in tool file, skipping", "path", path, "kind", spec.Kind)
		}
	}

	return nil
}
