package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: locprep <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  page       Annotate pages and convert them to Markdown")
	fmt.Fprintln(w, "  sheet      Encode a JSON table as sheet HTML")
	fmt.Fprintln(w, "  restore    Decode translated sheet HTML to JSON and XLSX")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'locprep help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <d>         Fetch timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --rules-url <url>     DNT rule list URL")
	fmt.Fprintln(w, "      --media-base-url <url> Base URL for ./media_ references")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

func printStageFlags(w io.Writer) {
	fmt.Fprintln(w, "Staging:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: output.dir)")
	fmt.Fprintln(w, "  -f, --force               Overwrite existing artifacts")
	fmt.Fprintln(w)
}

// printPageUsage prints usage for the page command.
func printPageUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: locprep page <path>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch <path>.plain.html and <path>.md, mark DNT regions with")
	fmt.Fprintln(w, "translate=\"no\" and stage page.html and page.md (and page.pdf).")
	fmt.Fprintln(w, "Several paths are staged in one subdirectory each.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  path    Absolute page URL without extension")
	fmt.Fprintln(w)
	printStageFlags(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "  -d, --document            Render a PDF of each page")
	fmt.Fprintln(w, "      --css <path>          Stylesheet for rendered documents")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printSheetUsage prints usage for the sheet command.
func printSheetUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: locprep sheet <url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch a JSON table and stage it as sheet.html.")
	fmt.Fprintln(w)
	printStageFlags(w)
	printCommonFlags(w)
}

// printRestoreUsage prints usage for the restore command.
func printRestoreUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: locprep restore <file|url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Decode translated sheet HTML and stage sheet.json and sheet.xlsx.")
	fmt.Fprintln(w)
	printStageFlags(w)
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: locprep config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration in effect after flags are applied.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "page":
		printPageUsage(env.Stdout)
	case "sheet":
		printSheetUsage(env.Stdout)
	case "restore":
		printRestoreUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: locprep version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: locprep help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
