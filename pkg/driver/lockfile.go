package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName is written next to the manifest.
const LockfileName = "tenda.lock"

// Lockfile records the exact revisions `tenda deps` installed, so a later
// install on another machine reproduces the same tree.
type Lockfile struct {
	Path string `yaml:"-"`

	Root      string          `yaml:"raiz"`
	Generated string          `yaml:"gerado"`
	Tool      string          `yaml:"ferramenta"`
	Packages  []LockedPackage `yaml:"pacotes"`
}

// LockedPackage is one resolved dependency: where it came from, which
// revision was checked out, and the checksum of the installed tree.
type LockedPackage struct {
	Name     string `yaml:"nome"`
	Version  string `yaml:"versão"`
	Source   string `yaml:"fonte"`
	Revision string `yaml:"revisão"`
	Checksum string `yaml:"soma"`
}

// NewLockfile seeds a lockfile for the given project.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      strings.TrimSpace(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
	}
}

// LoadLockfile parses tenda.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("tenda.lock: resolver %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lock Lockfile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&lock); err != nil {
		return nil, fmt.Errorf("tenda.lock: ler %s: %w", abs, err)
	}

	lock.Path = abs
	lock.normalize()
	return &lock, nil
}

// Write serialises the lockfile next to the manifest.
func (l *Lockfile) Write(path string) error {
	if path == "" {
		path = l.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("tenda.lock: resolver %s: %w", path, err)
	}

	if l.Generated == "" {
		l.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	l.Path = abs
	l.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("tenda.lock: serializar %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("tenda.lock: serializar %s: %w", abs, err)
	}
	return os.WriteFile(abs, buf.Bytes(), 0o644)
}

// Upsert records or replaces the entry for a package.
func (l *Lockfile) Upsert(pkg LockedPackage) {
	for i := range l.Packages {
		if l.Packages[i].Name == pkg.Name {
			l.Packages[i] = pkg
			l.normalize()
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
	l.normalize()
}

// Find returns the locked entry for name, if present.
func (l *Lockfile) Find(name string) (LockedPackage, bool) {
	for _, pkg := range l.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return LockedPackage{}, false
}

func (l *Lockfile) normalize() {
	l.Root = strings.TrimSpace(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
	for i := range l.Packages {
		pkg := &l.Packages[i]
		pkg.Name = strings.TrimSpace(pkg.Name)
		pkg.Version = strings.TrimSpace(pkg.Version)
		pkg.Source = strings.TrimSpace(pkg.Source)
		pkg.Revision = strings.TrimSpace(pkg.Revision)
		pkg.Checksum = strings.TrimSpace(pkg.Checksum)
	}
}
