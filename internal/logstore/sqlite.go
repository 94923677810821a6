package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"docqa/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	sources TEXT NOT NULL,
	chunks_retrieved INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	model TEXT NOT NULL,
	cost_estimate_usd REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_timestamp ON queries(timestamp);
`

// Store records answered queries in SQLite for post-hoc usage analysis.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the query log database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open query log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init query log schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Log inserts one record.
func (s *Store) Log(rec domain.LogRecord) error {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO queries
			(timestamp, query, answer, sources, chunks_retrieved,
			 input_tokens, output_tokens, total_tokens, model, cost_estimate_usd)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Format(time.RFC3339Nano), rec.Query, rec.Answer, string(sources), len(rec.Sources),
		rec.InputTokens, rec.OutputTokens, rec.InputTokens+rec.OutputTokens, rec.Model, rec.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}
	return nil
}

type row struct {
	ID           int64   `db:"id"`
	Timestamp    string  `db:"timestamp"`
	Query        string  `db:"query"`
	Answer       string  `db:"answer"`
	Sources      string  `db:"sources"`
	Chunks       int     `db:"chunks_retrieved"`
	InputTokens  int     `db:"input_tokens"`
	OutputTokens int     `db:"output_tokens"`
	TotalTokens  int     `db:"total_tokens"`
	Model        string  `db:"model"`
	CostUSD      float64 `db:"cost_estimate_usd"`
}

// Entry is one stored record with its database id.
type Entry struct {
	ID int64
	domain.LogRecord
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]Entry, error) {
	q := `SELECT * FROM queries ORDER BY id DESC`
	var rows []row
	var err error
	if limit > 0 {
		err = s.db.Select(&rows, q+` LIMIT ?`, limit)
	} else {
		err = s.db.Select(&rows, q)
	}
	if err != nil {
		return nil, fmt.Errorf("select query records: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r row) entry() (Entry, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parse record %d timestamp: %w", r.ID, err)
	}
	var sources []domain.SourceRef
	if err := json.Unmarshal([]byte(r.Sources), &sources); err != nil {
		return Entry{}, fmt.Errorf("parse record %d sources: %w", r.ID, err)
	}
	return Entry{
		ID: r.ID,
		LogRecord: domain.LogRecord{
			Timestamp:    ts,
			Query:        r.Query,
			Answer:       r.Answer,
			Sources:      sources,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			CostUSD:      r.CostUSD,
			Model:        r.Model,
		},
	}, nil
}

// Stats aggregates usage over all stored records.
type Stats struct {
	TotalQueries      int     `db:"total_queries"`
	TotalInputTokens  int64   `db:"total_input_tokens"`
	TotalOutputTokens int64   `db:"total_output_tokens"`
	TotalCostUSD      float64 `db:"total_cost_usd"`
	AvgChunks         float64 `db:"avg_chunks"`
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.Get(&st, `
		SELECT
			COUNT(*) AS total_queries,
			COALESCE(SUM(input_tokens), 0) AS total_input_tokens,
			COALESCE(SUM(output_tokens), 0) AS total_output_tokens,
			COALESCE(SUM(cost_estimate_usd), 0) AS total_cost_usd,
			COALESCE(AVG(chunks_retrieved), 0) AS avg_chunks
		FROM queries`)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate query stats: %w", err)
	}
	return st, nil
}

// ExportJSON writes all records to path as a JSON array, newest first.
func (s *Store) ExportJSON(path string) error {
	entries, err := s.Recent(0)
	if err != nil {
		return err
	}
	type exported struct {
		Timestamp    string             `json:"timestamp"`
		Query        string             `json:"query"`
		Answer       string             `json:"answer"`
		Sources      []domain.SourceRef `json:"sources"`
		InputTokens  int                `json:"input_tokens"`
		OutputTokens int                `json:"output_tokens"`
		TotalTokens  int                `json:"total_tokens"`
		Model        string             `json:"model"`
		CostUSD      float64            `json:"cost_estimate_usd"`
	}
	out := make([]exported, 0, len(entries))
	for _, e := range entries {
		out = append(out, exported{
			Timestamp:    e.Timestamp.Format(time.RFC3339Nano),
			Query:        e.Query,
			Answer:       e.Answer,
			Sources:      e.Sources,
			InputTokens:  e.InputTokens,
			OutputTokens: e.OutputTokens,
			TotalTokens:  e.InputTokens + e.OutputTokens,
			Model:        e.Model,
			CostUSD:      e.CostUSD,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
