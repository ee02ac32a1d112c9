package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-tiles/internal/config"
	"github.com/Faultbox/midgard-tiles/internal/logger"
	"github.com/Faultbox/midgard-tiles/internal/store"
	"github.com/Faultbox/midgard-tiles/pkg/formats"
)

// withStore runs fn against the configured store and closes it before
// returning.
func withStore(cfg *config.Config, fn func(context.Context, *store.Store) error) error {
	s, err := store.Open(cfg.Store.Path, store.WithLogger(logger.Named("store")))
	if err != nil {
		return err
	}
	err = fn(context.Background(), s)
	if cerr := s.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing store: %w", cerr)
	}
	return err
}

func cmdSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	name := fs.String("name", "", "Name to store the seed under (default: seed name)")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool save [-name n] <seed>")
		os.Exit(1)
	}

	seed, err := formats.LoadSeedFile(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	cfg.SeedDefaults(&seed)
	if *name != "" {
		seed.Name = *name
	}
	if seed.Name == "" {
		seed.Name = strings.TrimSuffix(filepath.Base(fs.Arg(0)), filepath.Ext(fs.Arg(0)))
	}

	err = withStore(cfg, func(ctx context.Context, s *store.Store) error {
		return s.SaveSeed(ctx, seed)
	})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Saved %s (%dx%d)\n", seed.Name, seed.Width, seed.Height)
}

func cmdLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default: <name>.yaml)")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool load [-o file] <name>")
		os.Exit(1)
	}

	out := *output
	err := withStore(cfg, func(ctx context.Context, s *store.Store) error {
		seed, err := s.LoadSeed(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if out == "" {
			out = seed.Name + ".yaml"
		}
		return formats.SaveSeedFile(out, seed)
	})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote %s\n", out)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	var infos []store.SeedInfo
	err := withStore(cfg, func(ctx context.Context, s *store.Store) error {
		var err error
		infos, err = s.ListSeeds(ctx)
		return err
	})
	if err != nil {
		fatalf("%v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No stored seeds")
		return
	}

	for _, info := range infos {
		fmt.Printf("%-24s %4dx%-4d tile %dx%d  %s\n",
			info.Name, info.Width, info.Height, info.TileWidth, info.TileHeight,
			info.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool delete <name>")
		os.Exit(1)
	}

	err := withStore(cfg, func(ctx context.Context, s *store.Store) error {
		return s.DeleteSeed(ctx, fs.Arg(0))
	})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Deleted %s\n", fs.Arg(0))
}
