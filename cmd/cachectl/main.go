// Command cachectl inspects and clears the on-disk audio caches.
//
// Usage:
//
//	go run ./cmd/cachectl stats            # occupancy of every backend cache
//	go run ./cmd/cachectl clear translate  # wipe one backend's cache
//	go run ./cmd/cachectl clear --all      # wipe everything
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nila-labs/nila/internal/config"
	"github.com/nila-labs/nila/pkg/audiocache"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "stats":
		if err := showStats(settings.CacheDir, settings.CacheMaxBytes); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "clear":
		if err := clear(settings.CacheDir, settings.CacheMaxBytes, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cachectl stats | clear <backend>|--all")
}

// backends lists the per-provider cache directories under root.
func backends(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func showStats(root string, maxBytes int64) error {
	names, err := backends(root)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("no caches under %s\n", root)
		return nil
	}
	for _, name := range names {
		cache, err := audiocache.New(filepath.Join(root, name), maxBytes)
		if err != nil {
			fmt.Printf("%-14s error: %v\n", name, err)
			continue
		}
		s := cache.Stats()
		fmt.Printf("%-14s %5d entries  %10d bytes  (ceiling %d)\n", name, s.Entries, s.Bytes, s.MaxBytes)
	}
	return nil
}

func clear(root string, maxBytes int64, args []string) error {
	all := false
	var target string
	for _, a := range args {
		if a == "--all" {
			all = true
		} else {
			target = a
		}
	}

	names, err := backends(root)
	if err != nil {
		return err
	}

	for _, name := range names {
		if !all && name != target {
			continue
		}
		cache, err := audiocache.New(filepath.Join(root, name), maxBytes)
		if err != nil {
			return err
		}
		before := cache.Stats()
		cache.Clear()
		fmt.Printf("cleared %s: %d entries, %d bytes freed\n", name, before.Entries, before.Bytes)
	}

	if !all && target == "" {
		return fmt.Errorf("clear needs a backend name or --all")
	}
	return nil
}
