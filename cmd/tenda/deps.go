package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tenda-lang/tenda/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) != 1 || args[0] != "instalar" {
		fmt.Fprintln(os.Stderr, "Uso: tenda deps instalar")
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		return 1
	}
	manifestPath, err := driver.FindManifest(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		return 1
	}
	if manifestPath == "" {
		fmt.Fprintf(os.Stderr, "erro: nenhum %s encontrado a partir de %s\n", driver.ManifestFile, cwd)
		return 1
	}

	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		return 1
	}

	lockPath := filepath.Join(filepath.Dir(manifestPath), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "erro: %s\n", err)
			return 1
		}
		lock = driver.NewLockfile(manifest.Name, cliVersion)
	}

	fetcher := driver.NewFetcher(manifest, lock)
	if err := fetcher.FetchAll(); err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		return 1
	}
	if err := lock.Write(lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "erro: %s\n", err)
		return 1
	}

	for _, name := range manifest.SortedDependencies() {
		if pkg, ok := lock.Find(name); ok {
			fmt.Printf("instalado %s %s (%s)\n", pkg.Name, pkg.Version, shortRevision(pkg.Revision))
		}
	}
	return 0
}

func shortRevision(revision string) string {
	if len(revision) > 12 {
		return revision[:12]
	}
	return revision
}
