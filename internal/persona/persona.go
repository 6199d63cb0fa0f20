// Package persona loads assistant persona profiles from YAML files. A
// persona contributes extra system prompt text and can restrict which
// tools the assistant may call.
package persona

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is one persona definition.
type Profile struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	SystemPrompt string   `yaml:"system_prompt"`
	AllowedTools []string `yaml:"allowed_tools"` // empty means all tools
}

// Allows reports whether the persona permits calling the named tool.
func (p *Profile) Allows(tool string) bool {
	if len(p.AllowedTools) == 0 {
		return true
	}
	for _, t := range p.AllowedTools {
		if t == tool {
			return true
		}
	}
	return false
}

// LoadFromDirectory loads persona profiles from YAML files in a directory.
// Files must have .yaml or .yml extension. Unreadable or malformed files
// are skipped with a warning.
func LoadFromDirectory(dir string, logger *slog.Logger) ([]Profile, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("personas directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read personas dir: %w", err)
	}

	var profiles []Profile
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
			logger.Warn("cannot read persona file", "path", path, "err", err)
			continue
		}

		var profile Profile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			logger.Warn("cannot parse persona file", "path", path, "err", err)
			continue
		}

		if profile.Name == "" {
			profile.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		logger.Info("loaded persona", "name", profile.Name, "path", path)
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// Select returns the named profile from a loaded set, or nil when absent.
func Select(profiles []Profile, name string) *Profile {
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i]
		}
	}
	return nil
}
