package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetcher installs manifest dependencies under tenda_modulos and records
// the resolved revisions in the lockfile.
type Fetcher struct {
	manifest *Manifest
	lock     *Lockfile
}

// NewFetcher builds a fetcher for the given project.
func NewFetcher(manifest *Manifest, lock *Lockfile) *Fetcher {
	return &Fetcher{manifest: manifest, lock: lock}
}

// FetchAll installs every manifest dependency, skipping entries whose locked
// revision is already checked out with a matching checksum.
func (f *Fetcher) FetchAll() error {
	modulesDir := f.manifest.ModulesPath()
	for _, name := range f.manifest.SortedDependencies() {
		dep := f.manifest.Dependencies[name]
		if err := f.fetch(name, dep, modulesDir); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) fetch(name string, dep Dependency, modulesDir string) error {
	url := strings.TrimSpace(dep.Git)
	if url == "" {
		return fmt.Errorf("dependência %q: endereço git obrigatório", name)
	}

	targetDir := filepath.Join(modulesDir, sanitizeSegment(name))

	if locked, ok := f.lock.Find(name); ok && locked.Version == dep.Version {
		if checksum, err := dirChecksum(targetDir); err == nil && checksum == locked.Checksum {
			return nil
		}
	}

	revision, err := f.checkout(url, dep.Version, targetDir)
	if err != nil {
		return fmt.Errorf("dependência %q: %w", name, err)
	}

	checksum, err := dirChecksum(targetDir)
	if err != nil {
		return fmt.Errorf("dependência %q: soma de verificação: %w", name, err)
	}

	f.lock.Upsert(LockedPackage{
		Name:     name,
		Version:  dep.Version,
		Source:   "git+" + url,
		Revision: revision,
		Checksum: checksum,
	})
	return nil
}

// checkout clones the repository into a scratch directory, resolves the
// pinned version to a commit, checks it out and moves it into place.
func (f *Fetcher) checkout(url, version, targetDir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(targetDir), "tenda-fetch-*")
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return "", fmt.Errorf("clonar %s: %w", url, err)
	}

	revision := revisionFor(version)
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("resolver a versão %s: %w", version, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("posicionar em %s: %w", version, err)
	}

	if err := os.RemoveAll(targetDir); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	return hash.String(), nil
}

// revisionFor maps the manifest version to a git revision: an empty version
// pins HEAD, anything else is tried as a tag first and a raw revision second.
func revisionFor(version string) plumbing.Revision {
	version = strings.TrimSpace(version)
	if version == "" {
		return plumbing.Revision("HEAD")
	}
	if strings.HasPrefix(version, "v") {
		return plumbing.Revision("refs/tags/" + version)
	}
	return plumbing.Revision(version)
}

// dirChecksum hashes every file name and content under path, so two installs
// compare equal exactly when their trees match.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// sanitizeSegment restricts a name to characters safe in a directory name.
func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "modulo"
	}
	return b.String()
}
