package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/motheatensoul/tei-scribe/annotation"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [folder]",
	Short: "Initialize a new annotation project",
	Long: `Initialize a new annotation project by creating:
- A sample configuration file (config.yaml)
- The SQLite database named in it, with its schema

Example:
  tei-scribe init ./njala
  tei-scribe init ./njala --name "Njáls saga"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := "."
		if len(args) == 1 {
			folder = args[0]
		}
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("failed to create project folder: %w", err)
		}
		absFolder, err := filepath.Abs(folder)
		if err != nil {
			return fmt.Errorf("failed to resolve project folder: %w", err)
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = filepath.Base(absFolder)
		}

		out := cmd.OutOrStdout()
		configFile := filepath.Join(folder, "config.yaml")
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			fmt.Fprintf(out, "Creating sample configuration file: %s\n", configFile)
			if err := createSampleConfig(configFile, name); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
		} else {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", configFile)
		}

		config, err := annotation.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if config.Storage.Database != "" {
			fmt.Fprintf(out, "Creating database: %s\n", config.Storage.Database)
			db, err := annotation.PrepareDatabase(config.Storage.Database)
			if err != nil {
				return fmt.Errorf("failed to prepare database: %w", err)
			}
			db.Close()
		}

		fmt.Fprintln(out, "Initialization complete!")
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintln(out, "  2. Start the annotation server:")
		fmt.Fprintf(out, "     tei-scribe serve %s\n", configFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("name", "n", "", "Project name, defaults to the folder name")
}

func createSampleConfig(filename, name string) error {
	sampleConfig := fmt.Sprintf(`# tei-scribe configuration file

project:
  name: %q
  description: |
    Edit this description to explain what is being annotated.
  # Recorded on confirmed lemmas
  author: ""

history:
  # Undo steps kept in memory
  max: 50

storage:
  # Folder holding annotations.json, relative to this file
  directory: .
  # Optional SQLite mirror of saved annotation sets
  database: annotations.db
  document: %q

server:
  addr: ":8080"

i18n:
  # en or is
  language: en
`, name, name)

	return os.WriteFile(filename, []byte(sampleConfig), 0o644)
}
