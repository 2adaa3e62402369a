package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tei-scribe [folder|config.yaml]",
	Short: "Annotate the words of a transcription",
	Long: strings.TrimSpace(`
Confirm lemmas and record semantic, paleographic, syntactic and free-form annotations
over the words of a transcribed manuscript, with undo, redo and atomic saves.

Given a folder, a default config.yaml is created in it when missing and the annotation
server is started. Given a config file, the server is started with it.
    `),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		configFile := args[0]
		if stat, err := os.Stat(configFile); err == nil && stat.IsDir() {
			log.Printf("Detected folder argument: %s", configFile)
			folder := configFile
			configFile = filepath.Join(folder, "config.yaml")
			if _, err := os.Stat(configFile); os.IsNotExist(err) {
				log.Printf("Creating default config: %s", configFile)
				if err := createSampleConfig(configFile, filepath.Base(folder)); err != nil {
					return fmt.Errorf("failed to create config: %w", err)
				}
			} else {
				log.Printf("Config file already exists: %s", configFile)
			}
		}
		addr, _ := cmd.Flags().GetString("addr")
		return serve(cmd, configFile, addr)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.Flags().StringP("addr", "a", "", "Address to bind the webserver, overrides the config")
	rootCmd.PersistentFlags().StringP("database", "d", "", "SQLite database file, overrides the config")
}
