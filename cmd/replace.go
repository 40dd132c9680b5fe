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
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valpere/blockstrings/internal/block"
	"github.com/valpere/blockstrings/internal/parser"
	"github.com/valpere/blockstrings/internal/store"
)

var (
	replaceInput        string
	replaceOutput       string
	replaceTranslations string
	replaceUseMemory    bool
	replaceDB           string
	replaceLocale       string
)

var replaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Write translated strings back into block content",
	Long: `Read a JSON array of parsed blocks, substitute translations for the
strings "blockstrings extract" would report, and write the rewritten blocks.

Translations come from a JSON object mapping original to translated text:

  {"Hello": "Hola", "https://example.com": "https://example.es"}

and/or from the translation memory (--memory, requires --locale). Entries
in the translations file win over the memory. Strings without a
translation are left as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if replaceInput == replaceOutput {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		cfg, err := loadConfig(replaceDB, replaceLocale)
		if err != nil {
			return err
		}
		if replaceUseMemory && cfg.Locale == "" {
			return fmt.Errorf("--memory requires a locale")
		}
		if !replaceUseMemory && replaceTranslations == "" {
			return fmt.Errorf("either --translations or --memory is required")
		}

		blocks, err := readBlocks(replaceInput)
		if err != nil {
			return err
		}

		var fileMap map[string]string
		if replaceTranslations != "" {
			if fileMap, err = readTranslations(replaceTranslations); err != nil {
				return err
			}
		}

		ctx := context.Background()

		var db *store.Store
		if replaceUseMemory {
			db, err = store.New(cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		out, n, err := runReplace(ctx, cfg.Registry(), blocks, db, cfg.Locale, fileMap)
		if err != nil {
			return err
		}

		data, err := block.EncodeAll(out)
		if err != nil {
			return fmt.Errorf("failed to encode blocks: %w", err)
		}
		if err := writeOutput(replaceOutput, data); err != nil {
			return err
		}

		log.Info().Int("blocks", len(blocks)).Int("replacements", n).Msg("replacement complete")
		return nil
	},
}

// runReplace builds the replacement mapping for blocks and applies it. Memory
// translations are looked up first; fileMap entries override them. It
// returns the rewritten blocks and the size of the mapping used.
func runReplace(ctx context.Context, reg *parser.Registry, blocks []*block.Block, db *store.Store, locale string, fileMap map[string]string) ([]*block.Block, int, error) {
	replacements := make(map[string]string)

	if db != nil {
		candidates, err := parser.ExtractAll(reg, blocks)
		if err != nil {
			return nil, 0, err
		}
		fromMemory, err := db.Replacements(ctx, locale, candidates)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read translation memory: %w", err)
		}
		log.Debug().Int("candidates", len(candidates)).Int("found", len(fromMemory)).Msg("memory lookup")
		for k, v := range fromMemory {
			replacements[k] = v
		}
	}
	for k, v := range fileMap {
		replacements[k] = v
	}

	if len(replacements) == 0 {
		log.Warn().Msg("no translations available, output will match input")
	}

	out, err := parser.ReplaceAll(reg, blocks, replacements)
	if err != nil {
		return nil, 0, err
	}
	return out, len(replacements), nil
}

func readTranslations(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read translations file: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse translations file %s: %w", path, err)
	}
	return m, nil
}

func init() {
	rootCmd.AddCommand(replaceCmd)

	replaceCmd.Flags().StringVarP(&replaceInput, "input", "i", "", "Input JSON file of parsed blocks (required)")
	replaceCmd.Flags().StringVarP(&replaceOutput, "output", "o", "", "Output file for rewritten blocks (required)")
	replaceCmd.Flags().StringVarP(&replaceTranslations, "translations", "t", "", "JSON file mapping original to translated strings")
	replaceCmd.Flags().BoolVar(&replaceUseMemory, "memory", false, "Look up translations in the translation memory")
	replaceCmd.Flags().StringVar(&replaceDB, "db", "", "Database path for translation memory (overrides config)")
	replaceCmd.Flags().StringVarP(&replaceLocale, "locale", "l", "", "Target locale for memory lookups")

	replaceCmd.MarkFlagRequired("input")
	replaceCmd.MarkFlagRequired("output")
}
