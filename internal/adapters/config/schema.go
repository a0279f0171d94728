package config

// CurrentVersion is the incr.yaml schema version understood by this loader.
const CurrentVersion = "1"

// Incrfile represents the structure of the incr.yaml configuration file.
type Incrfile struct {
	Version string              `yaml:"version"`
	Root    string              `yaml:"root"`
	Tasks   map[string]*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Input       []string          `yaml:"input"`
	Cmd         []string          `yaml:"cmd"`
	Target      []string          `yaml:"target"`
	Exclude     []string          `yaml:"exclude"`
	DependsOn   []string          `yaml:"dependsOn"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
	// Expires is a Go duration such as "24h". Empty means the result never expires.
	Expires string `yaml:"expires"`
}
