package vectorstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Reserved column names in the metadata table.
const (
	colRowPosition = "row_position"
	colDocID       = "doc_id"
	colText        = "text"
)

// Document is one fact to be indexed: a stable id, the text that gets
// embedded, and scalar metadata used for filtered search.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Metadata is the per-document attribute table, row-aligned with the
// index by insertion order. Row order is the only correspondence between
// a search hit's vector position and its attributes.
type Metadata struct {
	columns []string
	rows    []map[string]any
}

// newMetadataFromDocs builds the table in document order, merging each
// document's id and text into its row under doc_id and text so search
// hits carry the original sentence alongside the attributes.
func newMetadataFromDocs(docs []Document) *Metadata {
	colSet := map[string]struct{}{colDocID: {}, colText: {}}
	rows := make([]map[string]any, len(docs))
	for i, d := range docs {
		row := make(map[string]any, len(d.Metadata)+2)
		for k, v := range d.Metadata {
			row[k] = normalizeScalar(v)
			colSet[k] = struct{}{}
		}
		row[colDocID] = d.ID
		row[colText] = d.Text
		rows[i] = row
	}

	columns := make([]string, 0, len(colSet))
	for c := range colSet {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	return &Metadata{columns: columns, rows: rows}
}

// Len returns the number of rows.
func (m *Metadata) Len() int {
	return len(m.rows)
}

// Row returns a copy of row i's attributes.
func (m *Metadata) Row(i int) map[string]any {
	out := make(map[string]any, len(m.rows[i]))
	for k, v := range m.rows[i] {
		out[k] = v
	}
	return out
}

// MatchingRows returns the set of row positions whose attributes match
// every filter key/value pair exactly. A filter key absent from all rows
// matches nothing, which is an empty result, not an error.
func (m *Metadata) MatchingRows(filters map[string]any) map[int]struct{} {
	matched := make(map[int]struct{})
	for i, row := range m.rows {
		ok := true
		for k, want := range filters {
			have, present := row[k]
			if !present || !scalarEqual(have, normalizeScalar(want)) {
				ok = false
				break
			}
		}
		if ok {
			matched[i] = struct{}{}
		}
	}
	return matched
}

// save persists the table as a SQLite file: one metadata table, one row
// per document, explicit row_position preserving insertion order.
// Written to a temporary path and renamed into place.
func (m *Metadata) save(path string) error {
	tmp := path + ".tmp"
	os.Remove(tmp)

	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := m.writeTable(db); err != nil {
		db.Close()
		os.Remove(tmp)
		return err
	}
	if err := db.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}
	return nil
}

func (m *Metadata) writeTable(db *sql.DB) error {
	cols := make([]string, 0, len(m.columns)+1)
	cols = append(cols, quoteIdent(colRowPosition)+" INTEGER PRIMARY KEY")
	for _, c := range m.columns {
		cols = append(cols, quoteIdent(c))
	}
	createStmt := fmt.Sprintf("CREATE TABLE metadata (%s)", strings.Join(cols, ", "))
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.columns)+1), ", ")
	names := make([]string, 0, len(m.columns)+1)
	names = append(names, quoteIdent(colRowPosition))
	for _, c := range m.columns {
		names = append(names, quoteIdent(c))
	}
	insertStmt := fmt.Sprintf("INSERT INTO metadata (%s) VALUES (%s)",
		strings.Join(names, ", "), placeholders)

	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range m.rows {
		args := make([]any, 0, len(m.columns)+1)
		args = append(args, i)
		for _, c := range m.columns {
			args = append(args, row[c]) // nil for columns absent on this row
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert metadata row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata rows: %w", err)
	}
	return nil
}

// loadMetadata reads a table written by save. Row positions must be the
// contiguous sequence 0..n-1; anything else is a corruption error.
func loadMetadata(path string) (*Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to stat metadata file: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT * FROM metadata ORDER BY " + quoteIdent(colRowPosition))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable metadata table: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: metadata columns unreadable: %v", ErrCorrupt, err)
	}
	if len(colNames) == 0 || colNames[0] != colRowPosition {
		return nil, fmt.Errorf("%w: metadata table missing row_position", ErrCorrupt)
	}

	m := &Metadata{columns: colNames[1:]}
	for rows.Next() {
		values := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: metadata row unreadable: %v", ErrCorrupt, err)
		}

		pos, ok := values[0].(int64)
		if !ok || pos != int64(len(m.rows)) {
			return nil, fmt.Errorf("%w: metadata row positions not contiguous", ErrCorrupt)
		}

		row := make(map[string]any, len(colNames)-1)
		for i, c := range m.columns {
			if v := coerceValue(values[i+1]); v != nil {
				row[c] = v
			}
		}
		m.rows = append(m.rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: metadata scan failed: %v", ErrCorrupt, err)
	}

	return m, nil
}

// normalizeScalar maps metadata values onto the small set of scalar
// types that survive a SQLite round trip unchanged.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// coerceValue maps driver values back onto the normalized scalar set.
func coerceValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// scalarEqual compares normalized scalars; numeric values compare as
// float64 so that an integer filter matches a float column and vice
// versa.
func scalarEqual(a, b any) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
