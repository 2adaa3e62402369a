package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/motheatensoul/tei-scribe/annotation"
	"github.com/motheatensoul/tei-scribe/internal/archive"
	"github.com/motheatensoul/tei-scribe/internal/repository"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <config.yaml>",
	Short: "Start the annotation web server",
	Long: `Start the annotation web server.

The annotations of the project folder are loaded from annotations.json, or migrated
from a legacy confirmations.json when it is the only file present. Saving writes
annotations.json and, when a database is configured, mirrors the set into it.

Example:
  tei-scribe serve ./njala/config.yaml --addr :9000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return serve(cmd, args[0], addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to bind the webserver, overrides the config")
}

// loadConfig loads the config and applies the database flag
func loadConfig(cmd *cobra.Command, configFile string) (*annotation.Config, error) {
	config, err := annotation.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if database, _ := cmd.Flags().GetString("database"); database != "" {
		config.Storage.Database = database
	}
	return config, nil
}

// openSession opens the project folder of config, with its database when one is configured
func openSession(config *annotation.Config) (*annotation.Session, *sql.DB, error) {
	if err := os.MkdirAll(config.Storage.Directory, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	session := annotation.NewSession(config.History.Max, config.Project.Author)

	var db *sql.DB
	if config.Storage.Database != "" {
		var err error
		db, err = annotation.PrepareDatabase(config.Storage.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to prepare database: %w", err)
		}
		session.Repository = repository.NewAnnotationRepository(db)
		session.DocumentID = config.Storage.Document
	}

	result, err := session.Open(archive.NewProject(osfs.New(config.Storage.Directory)))
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, fmt.Errorf("failed to open project: %w", err)
	}
	log.Printf("Opened %s annotations from %s (dropped %d)", result.Source, config.Storage.Directory, result.Dropped)
	if result.Unreadable {
		log.Printf("warning: %s could not be read, starting empty; the original is kept as %s", archive.AnnotationsFile, archive.BackupFile)
	}
	if result.Source == archive.SourceLegacy {
		log.Printf("Migrated %d legacy confirmations, skipped %d", result.Migration.Imported, len(result.Migration.Skipped))
	}
	return session, db, nil
}

func serve(cmd *cobra.Command, configFile, addr string) error {
	config, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = config.Server.Addr
	}
	annotation.SetLanguage(config.I18n.Language)

	session, db, err := openSession(config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	app := &annotation.AnnotatorApp{
		Session: session,
		Config:  config,
	}

	log.Printf("Configuration: %s", configFile)
	log.Printf("Project: %s", config.Project.Name)
	log.Printf("Storage: %s", config.Storage.Directory)
	if config.Storage.Database != "" {
		log.Printf("Database: %s", config.Storage.Database)
	}
	log.Printf("Starting server on: %s", addr)

	return listenAndServe(cmd.Context(), addr, app.GetHTTPHandler())
}

// listenAndServe serves until ctx is done, then shuts the server down
func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: handler}
	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
