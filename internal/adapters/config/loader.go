// Package config provides the configuration loader for incr.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"github.com/spf13/afero"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var validTaskNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Loader implements ports.ConfigLoader by reading incr.yaml.
type Loader struct {
	Logger ports.Logger
	Fs     afero.Fs
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return NewLoaderWithFs(logger, afero.NewOsFs())
}

// NewLoaderWithFs creates a new Loader reading from fs.
func NewLoaderWithFs(logger ports.Logger, fs afero.Fs) *Loader {
	return &Loader{Logger: logger, Fs: fs}
}

// Load finds incr.yaml at or above cwd and returns its task graph.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var incrfile Incrfile
	if err := l.readAndUnmarshalYAML(configPath, &incrfile); err != nil {
		return nil, err
	}

	if incrfile.Version != "" && incrfile.Version != CurrentVersion {
		l.Logger.Warn(fmt.Sprintf("unknown %s version %q, reading it as version %s",
			domain.ConfigFileName, incrfile.Version, CurrentVersion))
	}

	g := domain.NewGraph()
	g.SetRoot(resolveRoot(configPath, incrfile.Root))

	for name, dto := range incrfile.Tasks {
		if err := validateTaskName(name); err != nil {
			return nil, err
		}
		if dto == nil {
			dto = &TaskDTO{}
		}

		for _, dep := range dto.DependsOn {
			if _, ok := incrfile.Tasks[dep]; !ok {
				return nil, zerr.With(zerr.With(domain.ErrMissingDependency, "missing_dependency", dep), "task", name)
			}
		}

		task, err := buildTask(name, dto, g.Root())
		if err != nil {
			return nil, err
		}
		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// DiscoverRoot returns the project root of the incr.yaml found at or above cwd.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}

	var incrfile Incrfile
	if err := l.readAndUnmarshalYAML(configPath, &incrfile); err != nil {
		return "", err
	}
	return resolveRoot(configPath, incrfile.Root), nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.Fs.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) readAndUnmarshalYAML(configPath string, target *Incrfile) error {
	data, err := afero.ReadFile(l.Fs, configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", configPath)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", configPath)
	}
	return nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// validateTaskName checks if the task name is reserved or contains invalid characters.
func validateTaskName(name string) error {
	if name == "all" {
		return zerr.With(domain.ErrReservedTaskName, "task_name", name)
	}
	if !validTaskNameRegex.MatchString(name) {
		return zerr.With(domain.ErrInvalidTaskName, "task_name", name)
	}
	return nil
}

func buildTask(name string, dto *TaskDTO, root string) (*domain.Task, error) {
	var expires time.Duration
	if dto.Expires != "" {
		d, err := time.ParseDuration(dto.Expires)
		if err != nil || d <= 0 {
			err = zerr.With(domain.ErrInvalidExpiry, "expires", dto.Expires)
			return nil, zerr.With(err, "task", name)
		}
		expires = d
	}

	return &domain.Task{
		Name:         domain.NewInternedString(name),
		Command:      dto.Cmd,
		Inputs:       canonicalizeStrings(dto.Input),
		Outputs:      canonicalizeStrings(dto.Target),
		Excludes:     canonicalizeStrings(dto.Exclude),
		Dependencies: domain.NewInternedStrings(dto.DependsOn),
		Environment:  dto.Environment,
		WorkingDir:   resolveTaskWorkingDir(root, dto.WorkingDir),
		Expires:      expires,
	}, nil
}

// canonicalizeStrings sorts and deduplicates paths before interning them.
func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return domain.NewInternedStrings(slices.Compact(sorted))
}

// resolveTaskWorkingDir resolves a configured working directory against the project root.
func resolveTaskWorkingDir(root, configured string) domain.InternedString {
	if configured == "" {
		return domain.NewInternedString(root)
	}
	if filepath.IsAbs(configured) {
		return domain.NewInternedString(filepath.Clean(configured))
	}
	return domain.NewInternedString(filepath.Clean(filepath.Join(root, configured)))
}
