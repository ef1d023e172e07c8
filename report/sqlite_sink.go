package report

import (
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteSink persists report lines into a relational table so runs can be
// compared with plain SQL afterwards. Lines keep their emission order via a
// per-report sequence number.
type SQLiteSink struct {
	db     *sql.DB
	report string
	seq    int
}

// InitReportSchema creates the report_lines table when absent. Call once
// per database before constructing sinks.
func InitReportSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("report schema: db is nil")
	}
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS report_lines (
        report TEXT NOT NULL,
        seq    INTEGER NOT NULL,
        line   TEXT NOT NULL,
        PRIMARY KEY (report, seq)
    );
	`)
	if err != nil {
		return fmt.Errorf("report schema: create report_lines table: %w", err)
	}
	return nil
}

// NewSQLiteSink binds a sink to one named report within db.
func NewSQLiteSink(db *sql.DB, reportName string) (*SQLiteSink, error) {
	if db == nil {
		return nil, errors.New("sqlite sink: db is nil")
	}
	if reportName == "" {
		return nil, errors.New("sqlite sink: report name must not be empty")
	}
	return &SQLiteSink{db: db, report: reportName}, nil
}

// WriteLine appends one line under the sink's report name.
func (s *SQLiteSink) WriteLine(line string) error {
	_, err := s.db.Exec(
		`INSERT INTO report_lines (report, seq, line) VALUES (?, ?, ?)`,
		s.report, s.seq, line,
	)
	if err != nil {
		return fmt.Errorf("sqlite sink: insert line for %q: %w", s.report, err)
	}
	s.seq++
	return nil
}

// Lines reads back every line of the named report in emission order.
func Lines(db *sql.DB, reportName string) ([]string, error) {
	rows, err := db.Query(
		`SELECT line FROM report_lines WHERE report = ? ORDER BY seq`,
		reportName,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: query lines for %q: %w", reportName, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("sqlite sink: scan line: %w", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite sink: row iteration: %w", err)
	}
	return out, nil
}
