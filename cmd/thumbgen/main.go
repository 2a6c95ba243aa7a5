// Command thumbgen generates YouTube thumbnail variants from a description
// and optional subject, style template and reference images.
//
// Usage:
//
//	thumbgen generate -d "a cat playing chess" [-image subject.png] [-ref ref.jpg ...] [-template 1] [-n 3]
//	thumbgen analyze -image current.jpg [-d "what the video is about"]
//	thumbgen key set|remove|show|check [-provider gemini] [key]
//	thumbgen templates
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "generate", "gen":
		return runGenerate(args[1:], stdout, stderr)
	case "analyze":
		return runAnalyze(args[1:], stdout, stderr)
	case "key":
		return runKey(args[1:], stdout, stderr)
	case "templates":
		return runTemplates(stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: thumbgen <command> [flags]

commands:
  generate    generate thumbnail variants (thumbgen generate -h for flags)
  analyze     suggest how to make an existing image more clickable
  key         manage API keys: set, remove, show, check
  templates   list the prompt and style templates
`)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// usageExit maps a flag parse or validation error to an exit code.
func usageExit(err error, stderr io.Writer) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}
