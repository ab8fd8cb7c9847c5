// Package config loads optional defaults for the command line from a YAML file.
package config

import (
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPath names an explicit defaults file.
	EnvPath = "FILES_TO_PROMPT_CONFIG"
	// DefaultFileName is looked up in the working directory when EnvPath is unset.
	DefaultFileName = ".files-to-prompt.yaml"
)

// File holds defaults that command-line flags may override.
type File struct {
	IncludeHidden   *bool    `yaml:"include_hidden"`
	IgnoreGitignore *bool    `yaml:"ignore_gitignore"`
	Ignore          []string `yaml:"ignore"`
	NBConvert       string   `yaml:"nbconvert"`
	Format          string   `yaml:"format"`
	Output          string   `yaml:"output"`
}

// Load reads the defaults file at path. A missing file yields empty defaults.
// Unknown keys are rejected.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, errors.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	var cfg File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve loads the file named by $FILES_TO_PROMPT_CONFIG, falling back to
// DefaultFileName. An explicitly named file must exist.
func Resolve() (*File, error) {
	path := os.Getenv(EnvPath)
	if path == "" {
		return Load(DefaultFileName)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Errorf("config %s from %s: %w", path, EnvPath, err)
	}
	return Load(path)
}
