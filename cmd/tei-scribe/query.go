package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motheatensoul/tei-scribe/internal/archive"
	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/filter"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

func printRow(w io.Writer, fields ...string) {
	fmt.Fprintln(w, strings.Join(fields, "\t"))
}

func targetString(t domain.Target) string {
	switch t.Type {
	case domain.TargetChar:
		return fmt.Sprintf("char:%d:%d-%d", t.WordIndex, t.CharStart, t.CharEnd)
	case domain.TargetSpan:
		return fmt.Sprintf("span:%d-%d", t.StartWord, t.EndWord)
	}
	return fmt.Sprintf("word:%d", t.WordIndex)
}

func valueString(v domain.Value) string {
	data, err := domain.MarshalValue(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func printAnnotations(w io.Writer, annotations []domain.Annotation) {
	printRow(w, "id", "type", "target", "value")
	for _, a := range annotations {
		printRow(w, a.ID, string(a.Type), targetString(a.Target), valueString(a.Value))
	}
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <annotations.json> [word]",
	Short: "Queries an annotation set",
	Long: `Without a word index, prints the number of annotations of each type.
With a word index, prints every annotation covering that word, spans included.
With --where, prints the annotations matching an expression over id, type, kind,
target, start, end, author, source, confidence and value.

Example:
  tei-scribe query annotations.json
  tei-scribe query annotations.json 12
  tei-scribe query annotations.json --where 'type == "lemma" && value.msa == "nsm"'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("while reading %s: %w", args[0], err)
		}
		set, err := archive.DecodeSet(data)
		if err != nil {
			return err
		}
		s := store.New(0)
		if dropped := s.LoadSet(set); dropped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "dropped %d invalid annotations\n", dropped)
		}

		out := cmd.OutOrStdout()
		if where, _ := cmd.Flags().GetString("where"); where != "" {
			f, err := filter.Compile(where)
			if err != nil {
				return err
			}
			annotations := s.Set().Annotations
			if len(args) == 2 {
				wordIndex, err := strconv.Atoi(args[1])
				if err != nil || wordIndex < 0 {
					return fmt.Errorf("invalid word index %q", args[1])
				}
				annotations = s.GetForWord(wordIndex)
			}
			selected, err := f.Select(annotations)
			if err != nil {
				return err
			}
			printAnnotations(out, selected)
			return nil
		}
		if len(args) == 1 {
			counts := s.Counts()
			for _, t := range domain.AnnotationTypes {
				printRow(out, string(t), strconv.Itoa(counts[t]))
			}
			return nil
		}

		wordIndex, err := strconv.Atoi(args[1])
		if err != nil || wordIndex < 0 {
			return fmt.Errorf("invalid word index %q", args[1])
		}
		printAnnotations(out, s.GetForWord(wordIndex))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("where", "w", "", "Filter expression")
}
