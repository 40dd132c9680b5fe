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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/blockstrings/internal/store"
)

var (
	memoryDBPath string
	memoryLocale string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage the translation memory",
	Long:  `Import, list, inspect, and clear the SQLite translation memory used by "replace --memory".`,
}

// openMemory resolves the database path and locale from flags and config.
func openMemory(needLocale bool) (*store.Store, string, error) {
	cfg, err := loadConfig(memoryDBPath, memoryLocale)
	if err != nil {
		return nil, "", err
	}
	if needLocale && cfg.Locale == "" {
		return nil, "", fmt.Errorf("a locale is required (--locale or BLOCKSTRINGS_LOCALE)")
	}
	db, err := store.New(cfg.DB)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg.Locale, nil
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, locale, err := openMemory(false)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(context.Background(), locale)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLOCALE\tUSED\tLAST USED\tINVALID\tSOURCE\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\t%s\t%s\n",
				e.ID, e.Locale, e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, snippet(e.SourceText), snippet(e.TranslatedText))
		}
		return w.Flush()
	},
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openMemory(false)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		fmt.Printf("Extractions:     %d\n", stats.Extractions)
		return nil
	},
}

var memoryImportCmd = &cobra.Command{
	Use:   "import <translations.json>",
	Short: "Import a JSON object of original → translated strings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := readTranslations(args[0])
		if err != nil {
			return err
		}

		db, locale, err := openMemory(true)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		n := 0
		for src, dst := range m {
			if src == "" {
				continue
			}
			if err := db.SaveTranslation(ctx, src, locale, dst); err != nil {
				return fmt.Errorf("failed to save %q: %w", src, err)
			}
			n++
		}
		fmt.Printf("Imported %d translations for %s.\n", n, locale)
		return nil
	},
}

var memoryPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print recorded strings that have no translation yet",
	Long: `Print, as a JSON array, the strings recorded by "extract --record" that have
no active translation for the locale. The output can be sent to a translator
and fed back with "memory import".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, locale, err := openMemory(true)
		if err != nil {
			return err
		}
		defer db.Close()

		pending, err := db.Pending(context.Background(), locale)
		if err != nil {
			return fmt.Errorf("failed to list pending strings: %w", err)
		}
		if pending == nil {
			pending = []string{}
		}
		out, err := json.MarshalIndent(pending, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput("", out)
	},
}

var memoryInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Mark a translation memory entry as invalid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openMemory(false)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InvalidateMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Printf("Invalidated entry: %s\n", args[0])
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openMemory(false)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all translations and recorded extractions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openMemory(false)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)

	memoryCmd.PersistentFlags().StringVar(&memoryDBPath, "db", "", "Database path (overrides config)")
	memoryCmd.PersistentFlags().StringVarP(&memoryLocale, "locale", "l", "", "Target locale")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryImportCmd)
	memoryCmd.AddCommand(memoryPendingCmd)
	memoryCmd.AddCommand(memoryInvalidateCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}
