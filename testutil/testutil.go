// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/gatherly/db"
	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/models"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp directory. A single connection serializes access, which
// keeps the concurrency tests about engine semantics rather than SQLite
// write contention.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + t.TempDir() + "/gatherly_test.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// Recorder is a Notifier that captures events for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *Recorder) Publish(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the captured events of the given type, or all events
// when eventType is empty.
func (r *Recorder) Events(eventType string) []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Event
	for _, ev := range r.events {
		if eventType == "" || ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Count(eventType string) int {
	return len(r.Events(eventType))
}

// NewTestEngine wires an engine onto a fresh test database with a
// recording notifier.
func NewTestEngine(t *testing.T) (*engine.Engine, *sql.DB, *Recorder) {
	t.Helper()
	conn := SetupTestDB(t)
	rec := &Recorder{}
	return engine.New(conn, rec), conn, rec
}

// DefaultConfig returns the consensus configuration most tests use:
// 60% threshold, 2-ballot floor, cancel on expiry.
func DefaultConfig() models.ConsensusConfig {
	return models.ConsensusConfig{
		Threshold:           60,
		MinimumParticipants: 2,
		DeadlineFallback:    models.FallbackCancel,
	}
}

// CreateTestHangout inserts a hangout directly and returns its ID. The
// owner is enrolled as a participant, matching what the engine does on
// creation.
func CreateTestHangout(t *testing.T, conn *sql.DB, ownerID, privacy, phase string, cfg models.ConsensusConfig) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO hangout (id, title, description, owner_id, privacy, phase,
		                     consensus_threshold, minimum_participants, require_mandatory_votes,
		                     deadline_fallback, allow_member_options, created_at, updated_at)
		VALUES ($1, 'Test Hangout', 'A test hangout', $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, id, ownerID, privacy, phase, cfg.Threshold, cfg.MinimumParticipants,
		cfg.RequireMandatoryVotes, cfg.DeadlineFallback, cfg.AllowMemberOptions, now)
	if err != nil {
		t.Fatalf("Failed to create test hangout: %v", err)
	}

	AddTestParticipant(t, conn, id, ownerID, models.RoleOwner)
	return id
}

// SetHangoutTimes sets the optional deadline/start/end columns.
func SetHangoutTimes(t *testing.T, conn *sql.DB, hangoutID string, deadline, startsAt, endsAt *time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE hangout SET voting_deadline = $1, starts_at = $2, ends_at = $3 WHERE id = $4
	`, deadline, startsAt, endsAt, hangoutID)
	if err != nil {
		t.Fatalf("Failed to set hangout times: %v", err)
	}
}

// AddTestOption inserts a live option and returns its ID.
func AddTestOption(t *testing.T, conn *sql.DB, hangoutID, label string) string {
	t.Helper()

	id := uuid.New().String()
	payload, _ := json.Marshal(map[string]string{"title": label})
	_, err := conn.Exec(`
		INSERT INTO option (id, hangout_id, payload, contributor_id, position, removed, created_at)
		VALUES ($1, $2, $3, 'fixture',
		        (SELECT COALESCE(MAX(position), 0) + 1 FROM option WHERE hangout_id = $2),
		        FALSE, $4)
	`, id, hangoutID, string(payload), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}
	return id
}

// AddTestParticipant inserts a participant row, ignoring duplicates.
func AddTestParticipant(t *testing.T, conn *sql.DB, hangoutID, userID, role string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO participant (hangout_id, user_id, role, rsvp_status, joined_at)
		VALUES ($1, $2, $3, 'pending', $4)
		ON CONFLICT (hangout_id, user_id) DO NOTHING
	`, hangoutID, userID, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}
}

// AddTestFriendship inserts a single directed friendship row.
func AddTestFriendship(t *testing.T, conn *sql.DB, userID, friendID, status string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO friendship (user_id, friend_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status = excluded.status
	`, userID, friendID, status, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test friendship: %v", err)
	}
}

// CastTestBallot upserts a ballot directly, bypassing the engine.
func CastTestBallot(t *testing.T, conn *sql.DB, hangoutID, voterID, optionID string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO ballot (hangout_id, voter_id, option_id, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (hangout_id, voter_id) DO UPDATE SET
			option_id = excluded.option_id,
			updated_at = excluded.updated_at
	`, hangoutID, voterID, optionID, now)
	if err != nil {
		t.Fatalf("Failed to cast test ballot: %v", err)
	}
}

// HangoutPhase reads the current phase straight from the store.
func HangoutPhase(t *testing.T, conn *sql.DB, hangoutID string) string {
	t.Helper()

	var phase string
	if err := conn.QueryRow(`SELECT phase FROM hangout WHERE id = $1`, hangoutID).Scan(&phase); err != nil {
		t.Fatalf("Failed to read hangout phase: %v", err)
	}
	return phase
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
