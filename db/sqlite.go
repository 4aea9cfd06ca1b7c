package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"edu2job/ml"
)

// History records each successful prediction with the input it was made
// for.
type History struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

type Entry struct {
	ID            string          `json:"id"`
	Input         json.RawMessage `json:"input"`
	Predictions   []ml.Prediction `json:"predictions"`
	PredictedRole string          `json:"predicted_role"`
	CreatedAt     time.Time       `json:"date"`
}

var schemas = map[string]string{
	"sqlite3": `CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		predictions TEXT NOT NULL,
		predicted_role TEXT,
		created_at DATETIME NOT NULL
	)`,
	"postgres": `CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		input JSONB NOT NULL,
		predictions JSONB NOT NULL,
		predicted_role TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// OpenHistory opens the history database and creates its table.
func OpenHistory(driver, dsn string) (*History, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("create predictions table: %w", err)
	}
	return &History{db: database, driver: driver, now: time.Now}, nil
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Save stores one prediction and returns the stored entry.
func (h *History) Save(ctx context.Context, input json.RawMessage, predictions []ml.Prediction) (Entry, error) {
	if h == nil || h.db == nil {
		return Entry{}, errors.New("history database not initialized")
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	entry := Entry{
		ID:          uuid.NewString(),
		Input:       input,
		Predictions: predictions,
		CreatedAt:   h.now().UTC(),
	}
	if len(predictions) > 0 {
		entry.PredictedRole = predictions[0].Role
	}
	payload, err := json.Marshal(predictions)
	if err != nil {
		return Entry{}, fmt.Errorf("encode predictions: %w", err)
	}

	_, err = h.db.ExecContext(ctx, h.rebind(`
		INSERT INTO predictions (id, input, predictions, predicted_role, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		entry.ID, string(entry.Input), string(payload), entry.PredictedRole, entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert prediction: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	if h == nil || h.db == nil {
		return nil, errors.New("history database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, h.rebind(`
		SELECT id, input, predictions, predicted_role, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			input       string
			predictions string
			role        sql.NullString
		)
		if err := rows.Scan(&e.ID, &input, &predictions, &role, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		e.Input = json.RawMessage(input)
		if err := json.Unmarshal([]byte(predictions), &e.Predictions); err != nil {
			return nil, fmt.Errorf("decode predictions %s: %w", e.ID, err)
		}
		e.PredictedRole = role.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (h *History) rebind(query string) string {
	if h.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
