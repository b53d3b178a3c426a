// Command genmock writes the deterministic 14-city sample snapshot used by
// local runs and the end-to-end tests.
//
// Usage:
//
//	go run ./cmd/genmock -out data/snapshot.db -seed 42
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/urban-climate-risk/internal/adapter/sqlite"
	"github.com/couchcryptid/urban-climate-risk/internal/sample"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/snapshot.db", "output path for the snapshot database")
	seed := flag.Uint64("seed", 42, "seed for the synthetic observations")
	force := flag.Bool("force", false, "replace an existing database")
	flag.Parse()

	if err := prepare(*out, *force); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, *out)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WithTx(ctx, func(tx *sqlite.Store) error {
		return sample.Seed(ctx, tx, *seed)
	}); err != nil {
		return fmt.Errorf("seed snapshot: %w", err)
	}

	fmt.Printf("Wrote %d cities x %d signals to %s (seed %d)\n",
		len(sample.Cities()), len(sample.Signals()), *out, *seed)
	return nil
}

// prepare creates the parent directory and clears an existing database when
// force is set.
func prepare(path string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case !force:
		return fmt.Errorf("%s already exists (use -force to replace it)", path)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path+suffix, err)
		}
	}
	return nil
}
