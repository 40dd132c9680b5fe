/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valpere/blockstrings/internal"
	"github.com/valpere/blockstrings/internal/block"
	"github.com/valpere/blockstrings/internal/parser"
	"github.com/valpere/blockstrings/internal/store"
)

var (
	extractInput  string
	extractOutput string
	extractUnique bool
	extractRecord bool
	extractDB     string
	extractLocale string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract translatable strings from block content",
	Long: `Read a JSON array of parsed blocks (or a single block object) and print
the translatable strings found in them as a JSON array.

Block types are matched against the built-in parser table, which can be
extended or overridden with a config file:

  parsers:
    core/paragraph:
      tags: [p]
    acme/card:
      tags: ["/h[2-3]/"]
      attributes: [title]
      regex: true
      block_attributes: [ctaLabel]

block_attributes lists block attributes read alongside "placeholder".

With --record the strings are also stored in the translation memory database
so "blockstrings memory pending" can list what still needs translating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(extractDB, extractLocale)
		if err != nil {
			return err
		}

		blocks, err := readBlocks(extractInput)
		if err != nil {
			return err
		}

		reg := cfg.Registry()
		ctx := context.Background()

		var db *store.Store
		if extractRecord {
			db, err = store.New(cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		strs, err := runExtract(ctx, reg, blocks, db, extractInput)
		if err != nil {
			return err
		}

		if extractUnique {
			strs = unique(strs)
		}

		out, err := json.MarshalIndent(strs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode strings: %w", err)
		}
		if err := writeOutput(extractOutput, out); err != nil {
			return err
		}

		log.Info().Int("blocks", len(blocks)).Int("strings", len(strs)).Msg("extraction complete")

		if db != nil && cfg.Locale != "" {
			pending, err := db.Pending(ctx, cfg.Locale)
			if err != nil {
				return fmt.Errorf("failed to list pending strings: %w", err)
			}
			log.Info().Str("locale", cfg.Locale).Int("pending", len(pending)).Msg("strings without translation")
		}
		return nil
	},
}

// runExtract collects the strings of every block with a registered parser.
// When db is non-nil each string is recorded against source.
func runExtract(ctx context.Context, reg *parser.Registry, blocks []*block.Block, db *store.Store, source string) ([]string, error) {
	strs := []string{}
	now := time.Now()
	err := parser.ExtractEach(reg, blocks, func(b *block.Block, found []string) error {
		log.Debug().Str("block", b.BlockName).Int("strings", len(found)).Msg("extracted")

		if db != nil {
			for _, s := range found {
				rec := internal.Extraction{
					SourceFile: source,
					BlockName:  b.BlockName,
					SourceText: s,
					Timestamp:  now,
				}
				if err := db.RecordExtraction(ctx, rec); err != nil {
					return fmt.Errorf("failed to record extraction: %w", err)
				}
			}
		}
		strs = append(strs, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return strs, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Input JSON file of parsed blocks (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file for the string list (default stdout)")
	extractCmd.Flags().BoolVar(&extractUnique, "unique", false, "Drop repeated strings from the output")
	extractCmd.Flags().BoolVar(&extractRecord, "record", false, "Record extracted strings in the translation memory")
	extractCmd.Flags().StringVar(&extractDB, "db", "", "Database path for translation memory (overrides config)")
	extractCmd.Flags().StringVarP(&extractLocale, "locale", "l", "", "Locale to report pending strings for")

	extractCmd.MarkFlagRequired("input")
}
