package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
// The UNIQUE constraint on users.username is what actually resolves
// concurrent sign-ups for the same name; the handler-level existence
// check only exists for a friendlier error message.
func InitPostgresTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Analytics facts are written by the ingestion pipeline, never by this service
		`CREATE TABLE IF NOT EXISTS analytics (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			day DATE NOT NULL,
			age VARCHAR(20) NOT NULL,
			gender VARCHAR(10) NOT NULL,
			a NUMERIC NOT NULL DEFAULT 0,
			b NUMERIC NOT NULL DEFAULT 0,
			c NUMERIC NOT NULL DEFAULT 0,
			d NUMERIC NOT NULL DEFAULT 0,
			e NUMERIC NOT NULL DEFAULT 0,
			f NUMERIC NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_day ON analytics(day)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_age ON analytics(age)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_gender ON analytics(gender)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
