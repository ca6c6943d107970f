package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tenda-lang/tenda/pkg/driver"
	"github.com/tenda-lang/tenda/pkg/report"
	"github.com/tenda-lang/tenda/pkg/runtime"
	"github.com/tenda-lang/tenda/pkg/source"
)

func runEntry(args []string) int {
	if len(args) != 1 {
		printUsage()
		return 1
	}

	loader := driver.NewLoader(runtime.NewOSPlatform())
	if _, err := loader.Run(args[0]); err != nil {
		reportError(loader, err)
		return 1
	}
	return 0
}

func reportError(loader *driver.Loader, err error) {
	var failure *driver.Failure
	if errors.As(err, &failure) {
		report.Render(os.Stderr, failure, func(id source.ID) (*driver.SourceFile, bool) {
			return loader.Source(id)
		})
		return
	}
	fmt.Fprintf(os.Stderr, "erro: %s\n", err)
}
