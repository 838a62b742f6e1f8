package dataset

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

const currentSchemaVersion = 1

// Schema definitions
const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);
`

const membersTable = `
CREATE TABLE IF NOT EXISTS members (
	membership_nbr INTEGER PRIMARY KEY,
	persona_id INTEGER NOT NULL,
	tenure_bucket TEXT NOT NULL,
	membership_tier TEXT NOT NULL,
	membership_type TEXT NOT NULL,
	auto_renew_opt_in INTEGER NOT NULL,
	sales_decile INTEGER NOT NULL,
	sales_centile INTEGER NOT NULL,
	tenure_months INTEGER NOT NULL,
	engagement_bucket TEXT NOT NULL,
	churn_risk_flag INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_members_segment ON members(persona_id, tenure_bucket);
`

const nbaUpliftTable = `
CREATE TABLE IF NOT EXISTS nba_uplift (
	persona_id INTEGER NOT NULL,
	tenure_bucket TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id INTEGER NOT NULL,
	entity_name TEXT NOT NULL,
	n_test_matched INTEGER NOT NULL,
	n_control_matched INTEGER NOT NULL,
	test_renewal_rate REAL NOT NULL,
	control_renewal_rate REAL NOT NULL,
	incremental_renewal_rate REAL NOT NULL,
	incremental_rank INTEGER NOT NULL,
	uplift_method TEXT NOT NULL,
	PRIMARY KEY (persona_id, tenure_bucket, entity_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_uplift_segment ON nba_uplift(persona_id, tenure_bucket);
`

const memberRecosTable = `
CREATE TABLE IF NOT EXISTS member_recos (
	membership_nbr INTEGER NOT NULL,
	persona_id INTEGER NOT NULL,
	tenure_bucket TEXT NOT NULL,
	engagement_bucket TEXT NOT NULL,
	churn_risk_flag INTEGER NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id INTEGER NOT NULL,
	entity_name TEXT NOT NULL,
	n_test_matched INTEGER NOT NULL,
	n_control_matched INTEGER NOT NULL,
	test_renewal_rate REAL NOT NULL,
	control_renewal_rate REAL NOT NULL,
	incremental_renewal_rate REAL NOT NULL,
	segment_rank INTEGER NOT NULL,
	score REAL NOT NULL,
	member_rank INTEGER NOT NULL,
	explanation_short TEXT NOT NULL,
	explanation_long TEXT NOT NULL,
	PRIMARY KEY (membership_nbr, member_rank)
);

CREATE INDEX IF NOT EXISTS idx_recos_member ON member_recos(membership_nbr);
`

// initSchema initializes the warehouse schema.
func initSchema(db *sql.DB) error {
	// Create schema version table
	if _, err := db.Exec(schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Check current version
	var version int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		version = 0
	} else if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if version >= currentSchemaVersion {
		log.Debug("Schema is up to date", "version", version)
		return nil
	}

	log.Debug("Migrating schema", "from", version, "to", currentSchemaVersion)

	// Apply migrations
	if version < 1 {
		if err := migrateV1(db); err != nil {
			return fmt.Errorf("failed to migrate to v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func migrateV1(db *sql.DB) error {
	log.Debug("Applying migration v1")

	tables := []string{membersTable, nbaUpliftTable, memberRecosTable}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", 1); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}
