package config

// Sievefile represents the structure of the sieve.yaml configuration file.
type Sievefile struct {
	Version     string          `yaml:"version"`
	Root        string          `yaml:"root"`
	Entrypoints []string        `yaml:"entrypoints"`
	Exclude     []string        `yaml:"exclude"`
	Scanners    map[string]bool `yaml:"scanners"`
	Scripts     []ScriptDTO     `yaml:"scripts"`
	Watch       WatchDTO        `yaml:"watch"`
	Index       PathDTO         `yaml:"index"`
	Store       PathDTO         `yaml:"store"`
	LogLevel    string          `yaml:"logLevel"`
}

// ScriptDTO declares a scripted scanner.
type ScriptDTO struct {
	Name      string   `yaml:"name"`
	Path      string   `yaml:"path"`
	Type      string   `yaml:"type"`
	NodeTypes []string `yaml:"nodeTypes"`
}

// WatchDTO configures watch mode.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}

// PathDTO holds a single configurable path.
type PathDTO struct {
	Path string `yaml:"path"`
}
