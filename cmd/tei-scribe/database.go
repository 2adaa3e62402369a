package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/motheatensoul/tei-scribe/annotation"
	"github.com/motheatensoul/tei-scribe/internal/archive"
	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/lemma"
	"github.com/motheatensoul/tei-scribe/internal/repository"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

// withRepository opens the database given by the --database flag for the duration of fn
func withRepository(cmd *cobra.Command, fn func(ctx context.Context, repo domain.AnnotationRepository) error) error {
	database, _ := cmd.Flags().GetString("database")
	if database == "" {
		return fmt.Errorf("--database flag is required")
	}
	db, err := annotation.PrepareDatabase(database)
	if err != nil {
		return fmt.Errorf("failed to prepare database: %w", err)
	}
	defer db.Close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, repository.NewAnnotationRepository(db))
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <annotations.json> <document-id>",
	Short: "Store an annotation set in the database",
	Long: `Validates an annotation set file and stores it in the database under a
document id, replacing what was stored for that document.

Example:
  tei-scribe import annotations.json njala -d annotations.db`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("while reading %s: %w", args[0], err)
		}
		set, err := archive.DecodeSet(data)
		if err != nil {
			return err
		}
		return withRepository(cmd, func(ctx context.Context, repo domain.AnnotationRepository) error {
			if err := repo.SaveSet(ctx, args[1], set); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d annotations into %s\n", len(set.Annotations), args[1])
			return nil
		})
	},
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <document-id> <annotations.json>",
	Short: "Write a stored annotation set to a file",
	Long: `Writes the annotation set stored under a document id to a file. With --legacy,
only the confirmed lemmas are written, as a word-index to lemma map.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(cmd, func(ctx context.Context, repo domain.AnnotationRepository) error {
			set, err := repo.LoadSet(ctx, args[0])
			if err != nil {
				return err
			}
			if set == nil {
				return fmt.Errorf("document %s not found", args[0])
			}
			var data []byte
			if legacy, _ := cmd.Flags().GetBool("legacy"); legacy {
				s := store.New(0)
				s.LoadSet(*set)
				data, err = archive.EncodeLegacy(lemma.NewFacade(s, "").LemmaMappings())
			} else {
				data, err = archive.EncodeSet(*set)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return fmt.Errorf("while writing %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d annotations to %s\n", len(set.Annotations), args[1])
			return nil
		})
	},
}

// documentsCmd represents the documents command
var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents stored in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(cmd, func(ctx context.Context, repo domain.AnnotationRepository) error {
			out := cmd.OutOrStdout()
			if toDelete, _ := cmd.Flags().GetString("delete"); toDelete != "" {
				if err := repo.DeleteDocument(ctx, toDelete); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted %s\n", toDelete)
				return nil
			}

			docs, err := repo.ListDocuments(ctx)
			if err != nil {
				return err
			}
			printRow(out, "document", "version", "annotations", "saved")
			for _, doc := range docs {
				printRow(out, doc.DocumentID, doc.Version, strconv.FormatInt(doc.AnnotationCount, 10), doc.SavedAt.Format("2006-01-02 15:04:05"))
			}

			if stats, _ := cmd.Flags().GetBool("stats"); stats {
				s, err := repo.GetStats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				types := make([]string, 0, len(s.ByType))
				for t := range s.ByType {
					types = append(types, string(t))
				}
				sort.Strings(types)
				for _, t := range types {
					printRow(out, t, strconv.FormatInt(s.ByType[domain.AnnotationType(t)], 10))
				}
				printRow(out, "total", strconv.FormatInt(s.TotalAnnotations, 10))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(documentsCmd)
	exportCmd.Flags().Bool("legacy", false, "Write confirmed lemmas as a legacy confirmation map")
	documentsCmd.Flags().Bool("stats", false, "Also print annotation counts by type")
	documentsCmd.Flags().String("delete", "", "Delete the given document instead of listing")
}
