package core

// RepoConfig represents the structure of the .stk-reviewer.yml file.
type RepoConfig struct {
	// Extension overrides the file extension selected for review.
	Extension string `yaml:"extension"`

	// Directory names or glob patterns skipped during enumeration.
	// Example: ["dist", "build", "**/testdata"]
	IgnoredDirectories []string `yaml:"ignored_directories"`

	// File names or glob patterns skipped during enumeration.
	// Example: ["setup.py", "*_pb2.py"]
	IgnoredFiles []string `yaml:"ignored_files"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		IgnoredDirectories: []string{},
		IgnoredFiles:       []string{},
	}
}
