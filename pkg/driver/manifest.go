// Package driver loads Tenda projects: it resolves imports into a module
// graph, executes modules in dependency order, and manages the project
// manifest, lockfile and fetched dependencies.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the project manifest name looked up from the entry file's
// directory upward.
const ManifestFile = "tenda.yml"

// ModulesDir is the directory fetched dependencies are installed into,
// resolved next to the manifest.
const ModulesDir = "tenda_modulos"

// Manifest models tenda.yml.
type Manifest struct {
	Path string `yaml:"-"`

	Name         string                `yaml:"nome"`
	Version      string                `yaml:"versão,omitempty"`
	Entry        string                `yaml:"entrada,omitempty"`
	Dependencies map[string]Dependency `yaml:"dependências,omitempty"`
}

// Dependency pins one external module source.
type Dependency struct {
	Git     string `yaml:"git"`
	Version string `yaml:"versão,omitempty"`
}

// LoadManifest parses tenda.yml at path.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifesto: resolver %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var m Manifest
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifesto: ler %s: %w", abs, err)
	}

	m.Path = abs
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, fmt.Errorf("manifesto: %s não declara `nome`", abs)
	}
	return &m, nil
}

// FindManifest walks from dir upward looking for tenda.yml. It returns an
// empty path when no manifest exists; running a loose script needs none.
func FindManifest(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, ManifestFile)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("manifesto: verificar %s: %w", candidate, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// SortedDependencies returns the dependency names in stable order.
func (m *Manifest) SortedDependencies() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModulesPath returns the install directory for fetched dependencies.
func (m *Manifest) ModulesPath() string {
	return filepath.Join(filepath.Dir(m.Path), ModulesDir)
}
