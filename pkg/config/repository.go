// Package config parses the two on-disk configuration surfaces described
// in §6.2/§6.3: the per-mount TOML repository config and the client
// directory map JSON.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// RepositoryConfig is the parsed `[repository]` section of a mount's
// per-client TOML config file.
type RepositoryConfig struct {
	Path                string `toml:"path"`
	Type                string `toml:"type"`
	CaseSensitive       bool   `toml:"case-sensitive"`
	Protocol            string `toml:"protocol"`
	RequireUTF8Path     bool   `toml:"require-utf8-path"`
	EnableTreeOverlay   bool   `toml:"enable-tree-overlay"`
	UseWriteBackCache   bool   `toml:"use-write-back-cache"`
	GUID                string `toml:"guid"`
}

type document struct {
	Repository rawRepository `toml:"repository"`
}

// rawRepository captures optional TOML fields as pointers, so we can tell
// "absent" from "explicitly false" before applying platform defaults.
type rawRepository struct {
	Path              string  `toml:"path"`
	Type              string  `toml:"type"`
	CaseSensitive     *bool   `toml:"case-sensitive"`
	Protocol          *string `toml:"protocol"`
	RequireUTF8Path   *bool   `toml:"require-utf8-path"`
	EnableTreeOverlay *bool   `toml:"enable-tree-overlay"`
	UseWriteBackCache *bool   `toml:"use-write-back-cache"`
	GUID              *string `toml:"guid"`
}

// ParseRepositoryConfig parses TOML config data into a RepositoryConfig,
// applying platform-appropriate defaults for any key the document omits.
// `path` and `type` are required; their absence is an error.
func ParseRepositoryConfig(data []byte) (RepositoryConfig, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return RepositoryConfig{}, fmt.Errorf("unable to parse repository config: %w", err)
	}
	raw := doc.Repository
	if raw.Path == "" {
		return RepositoryConfig{}, fmt.Errorf("repository config is missing required key \"path\"")
	}
	if raw.Type == "" {
		return RepositoryConfig{}, fmt.Errorf("repository config is missing required key \"type\"")
	}

	cfg := RepositoryConfig{
		Path: raw.Path,
		Type: raw.Type,
	}

	if raw.CaseSensitive != nil {
		cfg.CaseSensitive = *raw.CaseSensitive
	} else {
		cfg.CaseSensitive = defaultCaseSensitive
	}

	if raw.Protocol != nil {
		cfg.Protocol = *raw.Protocol
	} else {
		cfg.Protocol = defaultProtocol
	}

	if raw.RequireUTF8Path != nil {
		cfg.RequireUTF8Path = *raw.RequireUTF8Path
	} else {
		cfg.RequireUTF8Path = true
	}

	if raw.EnableTreeOverlay != nil {
		cfg.EnableTreeOverlay = *raw.EnableTreeOverlay
	} else {
		cfg.EnableTreeOverlay = defaultEnableTreeOverlay
	}

	if raw.UseWriteBackCache != nil {
		cfg.UseWriteBackCache = *raw.UseWriteBackCache
	} else {
		cfg.UseWriteBackCache = false
	}

	if raw.GUID != nil {
		cfg.GUID = *raw.GUID
	} else {
		cfg.GUID = uuid.NewString()
	}

	return cfg, nil
}

// LoadRepositoryConfig reads and parses the repository config file at path.
func LoadRepositoryConfig(path string) (RepositoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RepositoryConfig{}, fmt.Errorf("unable to read repository config: %w", err)
	}
	return ParseRepositoryConfig(data)
}
