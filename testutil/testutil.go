// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/fieldcode/catalog"
	"github.com/danielhkuo/fieldcode/cliparse"
	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// Each call gets its own database; it is closed when the test ends.
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	store := db.New(conn, db.DialectSQLite)
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return store
}

// GetTestConfig returns a test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		DatabaseURL:  "file::memory:",
		DatabaseType: "sqlite",
		CatalogPath:  "testdata/catalog.yml",
		Instance:     "test-instance",
		Workers:      4,
		SenderSalt:   "test-sender-salt",
		LogLevel:     "debug",
		LogFormat:    "text",
	}
}

// TestCatalogYAML is a small catalog covering every field kind, both comment
// modes, an activity window and an always-create incident form.
const TestCatalogYAML = `
version: "1.0"
parser:
  allowed_punctuation: "!"
  location_types: [PS]
  marker_kind: incident
forms:
  - id: pre-election
    name: Pre-election checklist
    prefix: PB
    kind: checklist
    groups:
      - name: Arrival
        fields:
          - {tag: A, description: Observer arrived, kind: boolean}
          - {tag: AB, description: Voters in queue, kind: numeric}
          - {tag: AC, description: Materials present, kind: multi_numeric}
          - {tag: AD, description: Ballot boxes, kind: numeric, min: 1, max: 2}
          - {tag: AE, description: Opening time, kind: choice, options: [1, 2, 3]}
  - id: election-day
    name: Election day checklist
    prefix: ED
    kind: checklist
    comment_mode: field
    activities:
      - {name: election-week, start: 2021-03-01, end: 2021-03-08}
    groups:
      - name: Opening
        fields:
          - {tag: BA, description: Voters processed, kind: numeric, min: 0, max: 9999}
          - {tag: BB, description: Seals intact, kind: boolean}
  - id: incident
    name: Critical incident
    prefix: XI
    kind: incident
    always_create: true
    groups:
      - name: Incidents
        fields:
          - {tag: A, description: Violence, kind: boolean}
          - {tag: B, description: Intimidation, kind: boolean}
`

// TestCatalog parses TestCatalogYAML.
func TestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.Parse([]byte(TestCatalogYAML))
	if err != nil {
		t.Fatalf("Failed to parse test catalog: %v", err)
	}
	return cat
}

// CreateTestLocation inserts a location with id "<type>-<code>" and returns it.
func CreateTestLocation(t *testing.T, store *db.Store, typeCode, code string) string {
	t.Helper()

	loc := &models.Location{
		ID:       typeCode + "-" + code,
		TypeCode: typeCode,
		Code:     code,
		Name:     "Test " + typeCode + " " + code,
	}
	if err := store.UpsertLocation(context.Background(), loc); err != nil {
		t.Fatalf("Failed to create test location: %v", err)
	}
	return loc.ID
}

// CreateTestObserver inserts an observer assigned to a new test location and
// returns the location id.
func CreateTestObserver(t *testing.T, store *db.Store, observerID, typeCode, code string) string {
	t.Helper()

	locationID := CreateTestLocation(t, store, typeCode, code)
	obs := &models.Observer{
		ID:         observerID,
		Name:       "Observer " + observerID,
		Role:       "observer",
		LocationID: locationID,
	}
	if err := store.UpsertObserver(context.Background(), obs); err != nil {
		t.Fatalf("Failed to create test observer: %v", err)
	}
	return locationID
}

// CountSubmissions returns the number of stored submissions.
func CountSubmissions(t *testing.T, store *db.Store) int {
	t.Helper()

	var n int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM submission").Scan(&n); err != nil {
		t.Fatalf("Failed to count submissions: %v", err)
	}
	return n
}

// Received returns a fixed receipt time on the given date, 10:00 UTC.
func Received(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}
