package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "build":
		handleBuild(args)
	case "download":
		handleDownload(args)
	case "ids":
		handleIDs(args)
	case "serve":
		handleServe(args)
	case "cache":
		if len(args) < 1 {
			printCacheUsage()
			os.Exit(1)
		}
		handleCacheCommand(args[0], args[1:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("seqbook - Build a book out of the Less Wrong sequences")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seqbook <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  build      Download every article and write the HTML and PDF book")
	fmt.Println("  download   Only download the articles into the cache")
	fmt.Println("  ids        Print the anchor id assigned to every article")
	fmt.Println("  serve      Assemble the book and serve it for preview")
	fmt.Println("  cache      Inspect the download cache")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Run 'seqbook <command> --help' for the flags of a command.")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  SEQBOOK_CONFIG     Path to the settings file (default: seqbook.yaml)")
	fmt.Println("  SEQBOOK_CACHE_DSN  Path to the download cache (default: html_cache.db)")
	fmt.Println("  SEQBOOK_LOG_LEVEL  debug, info, warn or error (default: info)")
}
