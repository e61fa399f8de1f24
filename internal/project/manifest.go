package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or blank.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Output formats accepted in [output].format.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatShort  = "short"
)

// DefaultComplexityLimit mirrors the analyzer default.
const DefaultComplexityLimit = 1_000_000

// Config is the decoded quill.toml.
type Config struct {
	Package  PackageConfig  `toml:"package"`
	Analysis AnalysisConfig `toml:"analysis"`
	Lower    LowerConfig    `toml:"lower"`
	Output   OutputConfig   `toml:"output"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type AnalysisConfig struct {
	// ComplexityLimit bounds usefulness analysis per match; 0 disables it.
	ComplexityLimit int `toml:"complexity_limit"`
	// AssumeValid lets matches omit arms for uninhabited variants.
	AssumeValid bool `toml:"assume_valid"`
}

type LowerConfig struct {
	SimplifyCFG bool `toml:"simplify_cfg"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

// Manifest is a loaded quill.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// DefaultConfig is what `quill init` writes and what applies without a manifest.
func DefaultConfig(name string) Config {
	return Config{
		Package:  PackageConfig{Name: name},
		Analysis: AnalysisConfig{ComplexityLimit: DefaultComplexityLimit, AssumeValid: true},
		Lower:    LowerConfig{SimplifyCFG: false},
		Output:   OutputConfig{Format: FormatPretty},
	}
}

// LoadManifest finds quill.toml from startDir upwards and decodes it.
// ok is false when no manifest exists.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes path. Sections other than [package] are optional and
// keep their defaults when absent.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig("")
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || cfg.Package.Name == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Analysis.ComplexityLimit < 0 {
		return Config{}, fmt.Errorf("%s: [analysis].complexity_limit must not be negative", path)
	}
	switch cfg.Output.Format {
	case FormatPretty, FormatJSON, FormatShort:
	default:
		return Config{}, fmt.Errorf("%s: [output].format must be one of pretty, json, short; got %q", path, cfg.Output.Format)
	}
	return cfg, nil
}

// EncodeConfig renders cfg as TOML.
func EncodeConfig(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteManifest creates dir/quill.toml. It refuses to overwrite an existing file.
func WriteManifest(dir string, cfg Config) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}
	data, err := EncodeConfig(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
