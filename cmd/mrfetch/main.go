package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInvalidArgs = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "history":
		return runHistory(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: mrfetch <command> [options]

Commands:
  fetch     Download every file listed in a CSV manifest
  validate  Parse a manifest and report problems without downloading
  history   List past runs recorded in the history database

Run 'mrfetch <command> -h' for command-specific help.`)
}
