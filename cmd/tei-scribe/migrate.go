package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/motheatensoul/tei-scribe/internal/archive"
	"github.com/motheatensoul/tei-scribe/internal/lemma"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

// migrateCmd represents the migrate-legacy command
var migrateCmd = &cobra.Command{
	Use:   "migrate-legacy <confirmations.json> <annotations.json>",
	Short: "Convert a legacy lemma confirmation map to an annotation set",
	Long: `Converts a word-index to lemma map, as saved before annotation sets existed,
into an annotation set file. Keys that are not non-negative integers are skipped
and reported.

Example:
  tei-scribe migrate-legacy confirmations.json annotations.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		legacyPath, setPath := args[0], args[1]
		force, _ := cmd.Flags().GetBool("force")
		author, _ := cmd.Flags().GetString("author")

		if _, err := os.Stat(setPath); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite it", setPath)
		}

		data, err := os.ReadFile(legacyPath)
		if err != nil {
			return fmt.Errorf("while reading %s: %w", legacyPath, err)
		}
		confirmations, err := archive.DecodeLegacy(data)
		if err != nil {
			return err
		}

		facade := lemma.NewFacade(store.New(0), author)
		result := facade.LoadLegacyConfirmations(confirmations)
		encoded, err := archive.EncodeSet(facade.Store().Set())
		if err != nil {
			return err
		}
		if err := os.WriteFile(setPath, encoded, 0o644); err != nil {
			return fmt.Errorf("while writing %s: %w", setPath, err)
		}

		log.Printf("migrate-legacy: wrote %s", setPath)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported\t%d\n", result.Imported)
		for _, key := range result.Skipped {
			fmt.Fprintf(out, "skipped\t%s\n", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolP("force", "f", false, "Overwrite an existing annotation set")
	migrateCmd.Flags().String("author", "", "Author recorded on the imported lemmas")
}
