package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/stormwatch/pkg/scenario"
)

// File is one scenario file read from disk.
type File struct {
	Path  string
	Input scenario.Input

	// Err is set when the file could not be read or does not hold an object.
	Err error
}

// FileSource loads scenario payloads from JSON or YAML files on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a new file-based scenario source.
// The path can be either a single file or a directory.
// If it's a directory, all .json, .yaml and .yml files below it are loaded.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Path returns the configured path.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads every scenario file under the configured path, sorted by path.
func (s *FileSource) Load(ctx context.Context) ([]File, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	if !info.IsDir() {
		return []File{s.LoadFile(s.path)}, nil
	}

	var paths []string
	err = filepath.WalkDir(s.path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != s.path && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsScenarioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.path, err)
	}

	slices.Sort(paths)
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f := s.LoadFile(p)
		if f.Err != nil {
			s.logger.Warn("failed to load scenario file, skipping",
				"path", p,
				"error", f.Err,
			)
		}
		files = append(files, f)
	}

	s.logger.Info("loaded scenarios from source",
		"path", s.path,
		"file_count", len(files),
	)
	return files, nil
}

// LoadFile reads and parses a single scenario file.
func (s *FileSource) LoadFile(path string) File {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{Path: path, Err: fmt.Errorf("failed to read file %q: %w", path, err)}
	}
	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return File{Path: path, Err: fmt.Errorf("failed to parse scenario file %q: %w", path, err)}
		}
	}
	in, err := scenario.ParseInput(data)
	if err != nil {
		return File{Path: path, Err: fmt.Errorf("failed to parse scenario file %q: %w", path, err)}
	}
	s.logger.Debug("loaded scenario file", "path", path)
	return File{Path: path, Input: in}
}

// IsScenarioFile reports whether path names a visible .json, .yaml or .yml
// file.
func IsScenarioFile(path string) bool {
	if isHidden(path) {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".json") || isYAML(path)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one
// parsing path. An empty document becomes null.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("YAML is not representable as JSON: %w", err)
	}
	return out, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
