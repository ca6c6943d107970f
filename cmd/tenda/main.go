package main

import (
	"fmt"
	"os"
)

const cliVersion = "tenda 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "ajuda":
		printUsage()
		return 0
	case "--version", "-V", "versão":
		fmt.Fprintln(os.Stdout, cliVersion)
		return 0
	case "executar":
		return runEntry(args[1:])
	case "repl":
		return runRepl()
	case "deps":
		return runDeps(args[1:])
	default:
		// `tenda arquivo.tnd` runs the file directly.
		return runEntry(args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Uso:")
	fmt.Fprintln(os.Stderr, "  tenda executar <arquivo.tnd>")
	fmt.Fprintln(os.Stderr, "  tenda <arquivo.tnd>")
	fmt.Fprintln(os.Stderr, "  tenda repl")
	fmt.Fprintln(os.Stderr, "  tenda deps instalar")
	fmt.Fprintln(os.Stderr, "  tenda versão")
}
