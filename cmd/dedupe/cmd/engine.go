package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/localindex/dedupe/internal/cache"
	"github.com/localindex/dedupe/internal/seed"
	"github.com/localindex/dedupe/internal/stores/memory"
	"github.com/localindex/dedupe/internal/stores/sqlite"
	"github.com/localindex/dedupe/pkg/dedup"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
	"github.com/localindex/dedupe/pkg/merge"
)

// engine bundles the wired finder and merger for a command invocation.
type engine struct {
	finder *dedup.Finder
	merger *merge.Merger
	close  func() error
}

// newEngine builds the store backend from flags and wires the finder and
// merger on top of it.
func newEngine() (*engine, error) {
	records, reviews, taxonomies, claims, closeStore, err := openStores()
	if err != nil {
		return nil, err
	}

	ttlCache := cache.New(dedup.DefaultCacheTTL, 10*time.Minute)
	base := linkBase
	if base == "" {
		base = viper.GetString("link-base")
	}

	finder, err := dedup.NewFinder(records,
		dedup.WithCache(ttlCache),
		dedup.WithReviewStore(reviews),
		dedup.WithTaxonomyStore(taxonomies),
		dedup.WithClaimStore(claims),
		dedup.WithLinkBase(base),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	merger, err := merge.New(records,
		merge.WithReviewStore(reviews),
		merge.WithTaxonomyStore(taxonomies),
		merge.WithClaimStore(claims),
		merge.WithCache(ttlCache),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &engine{finder: finder, merger: merger, close: func() error {
		closeStore()
		return nil
	}}, nil
}

// openStores picks the backend: a YAML seed file loads into memory, a
// --db path opens SQLite. Exactly one must be given.
func openStores() (
	directory.RecordStore,
	directory.ReviewStore,
	directory.TaxonomyStore,
	directory.ClaimStore,
	func(),
	error,
) {
	seedFile := seedPath
	if seedFile == "" {
		seedFile = viper.GetString("seed")
	}
	db := dbPath
	if db == "" {
		db = viper.GetString("db")
	}

	switch {
	case seedFile != "" && db != "":
		return nil, nil, nil, nil, nil,
			errors.NewValidationError("store", nil, "--db and --seed are mutually exclusive")
	case seedFile != "":
		store, err := memory.LoadSeed(seedFile)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		return store, store, store, store, func() {}, nil
	case db != "":
		store, err := sqlite.Open(db)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		return store, store, store, store, func() { store.Close() }, nil
	default:
		return nil, nil, nil, nil, nil,
			errors.NewValidationError("store", nil, "either --db or --seed is required")
	}
}

// importCmd loads a seed file into a SQLite database.
var importCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Import a YAML seed file into the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := dbPath
		if db == "" {
			db = viper.GetString("db")
		}
		if db == "" {
			return errors.NewValidationError("store", nil, "--db is required for import")
		}

		file, err := seed.Load(args[0])
		if err != nil {
			return err
		}
		store, err := sqlite.Open(db)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Import(cmd.Context(), file); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records, %d reviews, %d claims, %d terms\n",
			len(file.Records), len(file.Reviews), len(file.Claims), len(file.Terms))
		return nil
	},
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	rootCmd.AddCommand(importCmd)
}
