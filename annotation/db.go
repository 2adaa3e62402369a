package annotation

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/motheatensoul/tei-scribe/internal/repository"
)

func GetDatabase(filename string) (*sql.DB, error) {
	return sql.Open("sqlite", filename)
}

// PrepareDatabase opens the database and applies pending schema migrations
func PrepareDatabase(filename string) (*sql.DB, error) {
	log.Printf("PrepareDatabase: opening %s", filename)
	db, err := GetDatabase(filename)
	if err != nil {
		return nil, fmt.Errorf("while opening database: %w", err)
	}
	log.Printf("PrepareDatabase: applying migrations")
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
