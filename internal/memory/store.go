package memory

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// StatsWindow is the trailing period statistics are computed over.
const StatsWindow = 30 * 24 * time.Hour

// Decision is the kind of call the user made on a proposal. The kinds
// are mutually exclusive.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionModify  Decision = "modify"
	DecisionSkip    Decision = "skip"
)

// EventSnapshot captures an event as it looked when the decision was
// made. Snapshots are frozen copies; later calendar changes do not
// touch them.
type EventSnapshot struct {
	Subject   string `json:"subject"`
	Organizer string `json:"organizer,omitempty"`
	Attendees int    `json:"attendees"`
	Level     string `json:"level"`
	Score     int    `json:"score"`
}

// Record is one logged decision.
type Record struct {
	ID              string
	ConflictKey     string
	TimeRange       string
	Events          []EventSnapshot
	SuggestedAction string
	Origin          string
	Decision        Decision
	FinalAction     string
	CreatedAt       time.Time
}

// NewRecord builds a Record with a fresh ID and timestamp.
func NewRecord(conflictKey, timeRange string, events []EventSnapshot, suggested, origin string, decision Decision, finalAction string) Record {
	return Record{
		ID:              uuid.New().String(),
		ConflictKey:     conflictKey,
		TimeRange:       timeRange,
		Events:          events,
		SuggestedAction: suggested,
		Origin:          origin,
		Decision:        decision,
		FinalAction:     finalAction,
		CreatedAt:       time.Now(),
	}
}

// Pattern is a derived approval-rate statistic for one conflict shape.
type Pattern struct {
	Description  string
	ApprovalRate float64
	SampleCount  int
}

// Stats summarizes decisions inside the trailing window. The rates are
// computed from mutually exclusive decision kinds, so their weighted
// counts sum to TotalDecisions.
type Stats struct {
	TotalDecisions   int
	ApprovalRate     float64
	ModificationRate float64
	SkipRate         float64
}

// Store is the decision memory, backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the usual database location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".outlook-agent", "decisions.db")
}

// Open opens (and if needed creates) the decision store.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordDecision appends one record. History is never overwritten.
func (s *Store) RecordDecision(r Record) error {
	eventsJSON, err := json.Marshal(r.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO decisions (id, conflict_key, time_range, events, suggested_action, origin, decision, final_action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.ConflictKey, r.TimeRange, string(eventsJSON),
		r.SuggestedAction, r.Origin, string(r.Decision), r.FinalAction,
		// Normalized to UTC: created_at is compared lexicographically
		// in SQL, so every row must carry the same offset.
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// SuggestPatterns groups the full history by conflict key and returns
// the groups with at least minSamples records, most-seen first.
func (s *Store) SuggestPatterns(minSamples int) ([]Pattern, error) {
	if minSamples <= 0 {
		minSamples = 3
	}

	rows, err := s.db.Query(`
		SELECT conflict_key,
		       AVG(CASE WHEN decision = 'approve' THEN 1.0 ELSE 0.0 END),
		       COUNT(*)
		FROM decisions
		GROUP BY conflict_key
		HAVING COUNT(*) >= ?
		ORDER BY COUNT(*) DESC, conflict_key
	`, minSamples)
	if err != nil {
		return nil, fmt.Errorf("pattern query failed: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.Description, &p.ApprovalRate, &p.SampleCount); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// Statistics computes totals and rates over the trailing window.
func (s *Store) Statistics(window time.Duration) (Stats, error) {
	if window <= 0 {
		window = StatsWindow
	}
	cutoff := s.now().Add(-window).UTC().Format(time.RFC3339)

	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN decision = 'approve' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN decision = 'modify' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN decision = 'skip' THEN 1 ELSE 0 END), 0)
		FROM decisions
		WHERE created_at >= ?
	`, cutoff)

	var total, approved, modified, skipped int
	if err := row.Scan(&total, &approved, &modified, &skipped); err != nil {
		return Stats{}, fmt.Errorf("stats query failed: %w", err)
	}

	stats := Stats{TotalDecisions: total}
	if total > 0 {
		stats.ApprovalRate = float64(approved) / float64(total)
		stats.ModificationRate = float64(modified) / float64(total)
		stats.SkipRate = float64(skipped) / float64(total)
	}
	return stats, nil
}
