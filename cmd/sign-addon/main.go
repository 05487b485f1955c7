package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitServerRejected   = 3
	ExitValidationFailed = 4
	ExitNeedsReview      = 5
	ExitTimeout          = 6
	ExitDownloadFailed   = 7
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
	case "sign":
		return runSign(cmdArgs)
	case "status":
		return runStatus(cmdArgs)
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
	fmt.Fprintln(os.Stderr, `Usage: sign-addon <command> [options]

Commands:
  sign    Upload a package for signing, wait for completion, download signed files
  status  Fetch and classify the current status of a submitted version

Run 'sign-addon <command> -h' for command-specific help.`)
}
