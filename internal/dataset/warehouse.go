// Package dataset manages the membership warehouse: the SQLite database
// holding members, uplift summaries, and precomputed recommendations,
// plus the synthetic generator that populates it.
package dataset

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

// Warehouse is the SQLite-backed store for members, uplift rows, and
// member recommendations.
type Warehouse struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the warehouse at the given path.
func Open(dbPath string) (*Warehouse, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize warehouse schema: %w", err)
	}

	log.Debug("Opened warehouse", "path", dbPath)

	return &Warehouse{db: db}, nil
}

// Close closes the database connection.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// ReplaceMembers replaces the members table contents in one transaction.
func (w *Warehouse) ReplaceMembers(members []Member) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM members"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear members: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO members (
			membership_nbr, persona_id, tenure_bucket, membership_tier, membership_type,
			auto_renew_opt_in, sales_decile, sales_centile, tenure_months,
			engagement_bucket, churn_risk_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare member insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range members {
		_, err := stmt.Exec(
			m.MembershipNbr, m.PersonaID, m.TenureBucket, m.MembershipTier, m.MembershipType,
			boolToInt(m.AutoRenewOptIn), m.SalesDecile, m.SalesCentile, m.TenureMonths,
			m.EngagementBucket, boolToInt(m.ChurnRiskFlag),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert member %d: %w", m.MembershipNbr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit members: %w", err)
	}

	log.Debug("Replaced members", "count", len(members))
	return nil
}

// GetMember retrieves a member by membership number. Returns nil if the
// member does not exist.
func (w *Warehouse) GetMember(membershipNbr int64) (*Member, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var m Member
	var autoRenew, churnRisk int64
	err := w.db.QueryRow(`
		SELECT membership_nbr, persona_id, tenure_bucket, membership_tier, membership_type,
			auto_renew_opt_in, sales_decile, sales_centile, tenure_months,
			engagement_bucket, churn_risk_flag
		FROM members WHERE membership_nbr = ?
	`, membershipNbr).Scan(
		&m.MembershipNbr, &m.PersonaID, &m.TenureBucket, &m.MembershipTier, &m.MembershipType,
		&autoRenew, &m.SalesDecile, &m.SalesCentile, &m.TenureMonths,
		&m.EngagementBucket, &churnRisk,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	m.AutoRenewOptIn = autoRenew != 0
	m.ChurnRiskFlag = churnRisk != 0
	return &m, nil
}

// ListMembers returns all members ordered by membership number.
func (w *Warehouse) ListMembers() ([]Member, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows, err := w.db.Query(`
		SELECT membership_nbr, persona_id, tenure_bucket, membership_tier, membership_type,
			auto_renew_opt_in, sales_decile, sales_centile, tenure_months,
			engagement_bucket, churn_risk_flag
		FROM members ORDER BY membership_nbr
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var autoRenew, churnRisk int64
		if err := rows.Scan(
			&m.MembershipNbr, &m.PersonaID, &m.TenureBucket, &m.MembershipTier, &m.MembershipType,
			&autoRenew, &m.SalesDecile, &m.SalesCentile, &m.TenureMonths,
			&m.EngagementBucket, &churnRisk,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.AutoRenewOptIn = autoRenew != 0
		m.ChurnRiskFlag = churnRisk != 0
		members = append(members, m)
	}
	return members, rows.Err()
}

// ReplaceUplift replaces the uplift summary contents in one transaction.
func (w *Warehouse) ReplaceUplift(uplift []UpliftRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM nba_uplift"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear uplift rows: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO nba_uplift (
			persona_id, tenure_bucket, entity_type, entity_id, entity_name,
			n_test_matched, n_control_matched,
			test_renewal_rate, control_renewal_rate, incremental_renewal_rate,
			incremental_rank, uplift_method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare uplift insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range uplift {
		_, err := stmt.Exec(
			u.PersonaID, u.TenureBucket, u.EntityType, u.EntityID, u.EntityName,
			u.NTestMatched, u.NControlMatched,
			u.TestRenewalRate, u.ControlRenewalRate, u.IncrementalRenewalRate,
			u.IncrementalRank, u.UpliftMethod,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert uplift row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit uplift rows: %w", err)
	}

	log.Debug("Replaced uplift rows", "count", len(uplift))
	return nil
}

// ListUplift returns all uplift rows in segment order (persona, tenure
// bucket, then descending uplift within the segment).
func (w *Warehouse) ListUplift() ([]UpliftRow, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows, err := w.db.Query(`
		SELECT persona_id, tenure_bucket, entity_type, entity_id, entity_name,
			n_test_matched, n_control_matched,
			test_renewal_rate, control_renewal_rate, incremental_renewal_rate,
			incremental_rank, uplift_method
		FROM nba_uplift
		ORDER BY persona_id, tenure_bucket, incremental_renewal_rate DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uplift rows: %w", err)
	}
	defer rows.Close()

	var uplift []UpliftRow
	for rows.Next() {
		var u UpliftRow
		if err := rows.Scan(
			&u.PersonaID, &u.TenureBucket, &u.EntityType, &u.EntityID, &u.EntityName,
			&u.NTestMatched, &u.NControlMatched,
			&u.TestRenewalRate, &u.ControlRenewalRate, &u.IncrementalRenewalRate,
			&u.IncrementalRank, &u.UpliftMethod,
		); err != nil {
			return nil, fmt.Errorf("failed to scan uplift row: %w", err)
		}
		uplift = append(uplift, u)
	}
	return uplift, rows.Err()
}

// ReplaceRecos replaces the precomputed recommendations in one
// transaction.
func (w *Warehouse) ReplaceRecos(recos []Reco) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM member_recos"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO member_recos (
			membership_nbr, persona_id, tenure_bucket, engagement_bucket, churn_risk_flag,
			entity_type, entity_id, entity_name,
			n_test_matched, n_control_matched,
			test_renewal_rate, control_renewal_rate, incremental_renewal_rate,
			segment_rank, score, member_rank, explanation_short, explanation_long
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recos {
		_, err := stmt.Exec(
			r.MembershipNbr, r.PersonaID, r.TenureBucket, r.EngagementBucket, boolToInt(r.ChurnRiskFlag),
			r.EntityType, r.EntityID, r.EntityName,
			r.NTestMatched, r.NControlMatched,
			r.TestRenewalRate, r.ControlRenewalRate, r.IncrementalRenewalRate,
			r.SegmentRank, r.Score, r.MemberRank, r.ExplanationShort, r.ExplanationLong,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert recommendation for member %d: %w", r.MembershipNbr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	log.Debug("Replaced recommendations", "count", len(recos))
	return nil
}

// RecosForMember returns up to limit recommendations for one member,
// ordered by member rank.
func (w *Warehouse) RecosForMember(membershipNbr int64, limit int) ([]Reco, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows, err := w.db.Query(`
		SELECT membership_nbr, persona_id, tenure_bucket, engagement_bucket, churn_risk_flag,
			entity_type, entity_id, entity_name,
			n_test_matched, n_control_matched,
			test_renewal_rate, control_renewal_rate, incremental_renewal_rate,
			segment_rank, score, member_rank, explanation_short, explanation_long
		FROM member_recos WHERE membership_nbr = ?
		ORDER BY member_rank LIMIT ?
	`, membershipNbr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recos []Reco
	for rows.Next() {
		var r Reco
		var churnRisk int64
		if err := rows.Scan(
			&r.MembershipNbr, &r.PersonaID, &r.TenureBucket, &r.EngagementBucket, &churnRisk,
			&r.EntityType, &r.EntityID, &r.EntityName,
			&r.NTestMatched, &r.NControlMatched,
			&r.TestRenewalRate, &r.ControlRenewalRate, &r.IncrementalRenewalRate,
			&r.SegmentRank, &r.Score, &r.MemberRank, &r.ExplanationShort, &r.ExplanationLong,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.ChurnRiskFlag = churnRisk != 0
		recos = append(recos, r)
	}
	return recos, rows.Err()
}

// Stats returns row counts for the status command.
func (w *Warehouse) Stats() (*Stats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var s Stats
	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM members", &s.Members},
		{"SELECT COUNT(*) FROM nba_uplift", &s.Uplift},
		{"SELECT COUNT(*) FROM member_recos", &s.Recos},
	}
	for _, c := range counts {
		if err := w.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return &s, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
