package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tenda-lang/tenda/pkg/driver"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tenda.yml", `
nome: minha-loja
versão: 1.2.0
entrada: principal.tnd
dependências:
  moeda:
    git: https://exemplo.com/moeda.git
    versão: v2.0.1
  texto-extra:
    git: https://exemplo.com/texto-extra.git
`)

	manifest, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if manifest.Name != "minha-loja" || manifest.Version != "1.2.0" {
		t.Fatalf("wrong header: %+v", manifest)
	}
	dep := manifest.Dependencies["moeda"]
	if dep.Git != "https://exemplo.com/moeda.git" || dep.Version != "v2.0.1" {
		t.Fatalf("wrong dependency: %+v", dep)
	}
	if got := manifest.SortedDependencies(); got[0] != "moeda" || got[1] != "texto-extra" {
		t.Fatalf("wrong order: %v", got)
	}
	if filepath.Base(filepath.Dir(manifest.ModulesPath())) != filepath.Base(dir) {
		t.Fatalf("modules dir must sit next to the manifest: %s", manifest.ModulesPath())
	}
}

func TestLoadManifestRejectsUnknownFieldsAndMissingName(t *testing.T) {
	dir := t.TempDir()

	bad := writeFile(t, dir, "estranho.yml", "nome: x\ninesperado: 1\n")
	if _, err := driver.LoadManifest(bad); err == nil {
		t.Fatal("unknown fields must be rejected")
	}

	anon := writeFile(t, dir, "anônimo.yml", "versão: 1.0.0\n")
	if _, err := driver.LoadManifest(anon); err == nil {
		t.Fatal("a manifest without nome must be rejected")
	}
}

func TestFindManifestWalksUpward(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tenda.yml", "nome: raiz\n")
	nested := filepath.Join(dir, "src", "fundo")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := driver.FindManifest(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Dir(found) != dir {
		t.Fatalf("want manifest at %s, got %s", dir, found)
	}

	empty := t.TempDir()
	found, err = driver.FindManifest(empty)
	if err != nil {
		t.Fatalf("find in empty tree: %v", err)
	}
	if found != "" && filepath.Dir(found) == empty {
		t.Fatalf("unexpected manifest: %s", found)
	}
}

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, driver.LockfileName)

	lock := driver.NewLockfile("minha-loja", "tenda 0.1.0")
	lock.Upsert(driver.LockedPackage{
		Name:     "zeta",
		Version:  "v1.0.0",
		Source:   "git+https://exemplo.com/zeta.git",
		Revision: "abc123",
		Checksum: "deadbeef",
	})
	lock.Upsert(driver.LockedPackage{Name: "alfa", Version: "v2.0.0"})
	if err := lock.Write(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := driver.LoadLockfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Root != "minha-loja" || loaded.Tool != "tenda 0.1.0" {
		t.Fatalf("wrong header: %+v", loaded)
	}
	if len(loaded.Packages) != 2 || loaded.Packages[0].Name != "alfa" {
		t.Fatalf("packages must sort by name: %+v", loaded.Packages)
	}
	pkg, ok := loaded.Find("zeta")
	if !ok || pkg.Revision != "abc123" || pkg.Checksum != "deadbeef" {
		t.Fatalf("wrong entry: %+v", pkg)
	}

	// Upsert replaces in place.
	loaded.Upsert(driver.LockedPackage{Name: "zeta", Version: "v1.1.0"})
	if len(loaded.Packages) != 2 {
		t.Fatalf("upsert must not duplicate, got %d", len(loaded.Packages))
	}
}
