package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pevans/seqbook/cache"
	"github.com/spf13/pflag"
)

func handleCacheCommand(action string, args []string) {
	switch action {
	case "list":
		handleCacheList(args)
	case "delete":
		handleCacheDelete(args)
	case "help", "--help", "-h":
		printCacheUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown cache command: %s\n\n", action)
		printCacheUsage()
		os.Exit(1)
	}
}

func printCacheUsage() {
	fmt.Println("seqbook cache - Inspect the download cache")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seqbook cache <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list         List cached articles")
	fmt.Println("  delete <url> Evict one article so it is downloaded again")
	fmt.Println("  help         Show this help message")
}

func handleCacheList(args []string) {
	if err := runCacheList(args); err != nil {
		fail("%v", err)
	}
}

func runCacheList(args []string) error {
	fs := pflag.NewFlagSet("cache list", pflag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	cfg, err := common.settings(fs)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	return withCache(cfg, func(store *cache.Store) error {
		pages, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}

		if len(pages) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tFETCHED\tLAST MODIFIED")
		fmt.Fprintln(w, "---\t-------\t-------------")
		for _, page := range pages {
			lastModified := "-"
			if page.LastModified != nil {
				lastModified = page.LastModified.Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", page.URL, page.FetchedAt.Local().Format(time.DateTime), lastModified)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d articles\n", len(pages))
		return nil
	})
}

func handleCacheDelete(args []string) {
	if err := runCacheDelete(args); err != nil {
		fail("%v", err)
	}
}

func runCacheDelete(args []string) error {
	fs := pflag.NewFlagSet("cache delete", pflag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("expected exactly one URL")
	}
	url := fs.Arg(0)

	cfg, err := common.settings(fs)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	return withCache(cfg, func(store *cache.Store) error {
		if err := store.Delete(url); err != nil {
			if errors.Is(err, cache.ErrPageNotFound) {
				return fmt.Errorf("%s is not cached: %w", url, err)
			}
			return fmt.Errorf("failed to delete: %w", err)
		}

		fmt.Printf("Deleted %s from the cache\n", url)
		return nil
	})
}
