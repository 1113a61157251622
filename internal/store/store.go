// Package store provides SQLite-backed persistence for finished
// candidate screenings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/talenthunt/screener/internal/interview"
	"github.com/talenthunt/screener/internal/screening"
)

// Store persists candidate records in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dbPath and creates the schema if it
// does not exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		years_experience TEXT NOT NULL,
		desired_positions TEXT NOT NULL,
		location TEXT NOT NULL,
		tech_stack TEXT NOT NULL,
		resume_text TEXT,
		match_score REAL NOT NULL DEFAULT 0,
		technical_answers TEXT NOT NULL,
		transcript TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		submission_time DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save inserts a finished record and returns its assigned row id. The
// submission time is stamped here, in UTC.
func (s *Store) Save(ctx context.Context, rec *screening.Record) (int64, error) {
	answers, err := json.Marshal(rec.TechnicalAnswers)
	if err != nil {
		return 0, fmt.Errorf("encode technical answers: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return 0, fmt.Errorf("encode transcript: %w", err)
	}

	submittedAt := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (
			session_id, full_name, email, phone, years_experience,
			desired_positions, location, tech_stack, resume_text,
			match_score, technical_answers, transcript, sentiment,
			submission_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.FullName, rec.Email, rec.Phone, rec.YearsExperience,
		rec.DesiredPositions, rec.Location, rec.TechStack, rec.ResumeText,
		rec.MatchScore, string(answers), string(transcript), rec.Sentiment,
		submittedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert candidate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("candidate row id: %w", err)
	}

	rec.ID = id
	rec.SubmittedAt = submittedAt
	return id, nil
}

// ListAll returns every candidate record, most recent submission first.
// Reading never mutates the stored rows.
func (s *Store) ListAll(ctx context.Context) ([]*screening.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, full_name, email, phone, years_experience,
			desired_positions, location, tech_stack, resume_text,
			match_score, technical_answers, transcript, sentiment,
			submission_time
		 FROM candidates
		 ORDER BY submission_time DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var records []*screening.Record
	for rows.Next() {
		var (
			rec        screening.Record
			resume     sql.NullString
			answers    string
			transcript string
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.FullName, &rec.Email, &rec.Phone,
			&rec.YearsExperience, &rec.DesiredPositions, &rec.Location,
			&rec.TechStack, &resume, &rec.MatchScore, &answers, &transcript,
			&rec.Sentiment, &rec.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		rec.ResumeText = resume.String

		if err := json.Unmarshal([]byte(answers), &rec.TechnicalAnswers); err != nil {
			return nil, fmt.Errorf("decode technical answers for record %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript for record %d: %w", rec.ID, err)
		}
		if rec.TechnicalAnswers == nil {
			rec.TechnicalAnswers = []interview.Answer{}
		}
		if rec.Transcript == nil {
			rec.Transcript = []interview.Turn{}
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return records, nil
}
