package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdlive [flags] <file.md>")
	fmt.Fprintln(w, "       mdlive --html <file.md>")
	fmt.Fprintln(w, "       mdlive <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Live preview for markdown with d2, PlantUML, Mermaid and data blocks.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  doctor     Check diagram compilers and browser")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --host <s>            Listen host (default localhost)")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port (0 = random in 5000-5300)")
	fmt.Fprintln(w, "      --no-browser          Do not open the preview")
	fmt.Fprintln(w, "      --stdin               Read <LiveNote>-terminated documents from stdin")
	fmt.Fprintln(w, "      --html                Print the rendered page and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent compilers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-diagram timeout (e.g., 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>           CSS style name or file path")
	fmt.Fprintln(w, "      --highlight-style <s> Code highlight style")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/ and templates/ directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --log-format <s>      text or json")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdlive doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check d2, java with plantuml.jar, mmdc and Chrome.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdlive version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdlive help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
