// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielhkuo/fieldcode/compose"
	"github.com/danielhkuo/fieldcode/handlers"
	"github.com/danielhkuo/fieldcode/keylock"
	"github.com/danielhkuo/fieldcode/models"
	"github.com/danielhkuo/fieldcode/reconcile"
	"github.com/danielhkuo/fieldcode/testutil"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func decodeRecords(t *testing.T, out *bytes.Buffer) map[int]ingestRecord {
	t.Helper()
	records := make(map[int]ingestRecord)
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var rec ingestRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records[rec.Line] = rec
	}
	return records
}

func TestIngest(t *testing.T) {
	// Registered first so it runs after the database is closed
	t.Cleanup(func() { goleak.VerifyNone(t) })

	store := testutil.SetupTestDB(t)
	testutil.CreateTestObserver(t, store, "1234", "PS", "42")

	h, err := handlers.NewMessageHandler(testutil.TestCatalog(t), store,
		reconcile.New(store, keylock.NewMemoryLocker()), testutil.GetTestConfig())
	require.NoError(t, err)
	renderer, err := compose.NewRenderer(nil)
	require.NoError(t, err)

	input := strings.Join([]string{
		`{"text":"1234PBPS42AB5","sender":"+1","received_at":"2021-03-10T09:00:00Z"}`,
		`{"text":"1234PBPS42AC12","sender":"+1","received_at":"2021-03-10T09:05:00Z"}`,
		``,
		`{"text":"1234PBPS42AD1","sender":"+1","received_at":"2021-03-10T09:10:00Z"}`,
		`{"text":"not a report","received_at":"2021-03-10T09:15:00Z"}`,
		`{"text":`,
	}, "\n")

	var out bytes.Buffer
	stats, err := ingest(context.Background(), strings.NewReader(input), &out, h.Handle, renderer.Render, 4)
	require.NoError(t, err)

	assert.Equal(t, ingestStats{Total: 5, Stored: 3, Rejected: 1, Failed: 1}, stats)
	assert.Equal(t, 1, testutil.CountSubmissions(t, store))

	records := decodeRecords(t, &out)
	require.Len(t, records, 5)

	assert.Equal(t, models.StatusEnvelopeMismatch, records[5].Result.Outcome.Status)
	assert.Equal(t, []string{"Your message could not be understood. Please check the format and resend."}, records[5].Replies)
	assert.Contains(t, records[6].Error, "failed to decode message")
	assert.True(t, strings.HasPrefix(records[1].Replies[0], "Thank you."))
	assert.Equal(t, records[1].Result.SubmissionID, records[4].Result.SubmissionID)
}

func TestIngest_HandlerErrorsAreRecorded(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("storage retries exhausted")
	handle := func(ctx context.Context, msg models.Message) (*handlers.Result, error) {
		return nil, boom
	}
	render := func(compose.Reply) ([]string, error) { return nil, nil }

	input := `{"text":"a"}` + "\n" + `{"text":"b"}` + "\n"
	var out bytes.Buffer
	stats, err := ingest(context.Background(), strings.NewReader(input), &out, handle, render, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Failed)
	for _, rec := range decodeRecords(t, &out) {
		assert.Equal(t, boom.Error(), rec.Error)
	}
}

func TestIngest_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	handle := func(ctx context.Context, msg models.Message) (*handlers.Result, error) {
		called = true
		return &handlers.Result{}, nil
	}

	_, err := ingest(ctx, strings.NewReader(`{"text":"a"}`), &bytes.Buffer{}, handle, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestImportRoster(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	data := []byte(`
locations:
  - {type_code: ps, code: "42", name: Central school}
  - {id: PS-43, type_code: PS, code: "43", name: North school}
observers:
  - {id: "1234", name: A. Observer, role: observer, location: PS42}
  - {id: "5678", name: B. Observer, role: supervisor}
`)

	locations, observers, err := importRoster(ctx, store, data)
	require.NoError(t, err)
	assert.Equal(t, 2, locations)
	assert.Equal(t, 2, observers)

	loc, err := store.FindLocation(ctx, "PS", "42")
	require.NoError(t, err)
	obs, err := store.FindObserver(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, obs.LocationID)

	north, err := store.FindLocation(ctx, "PS", "43")
	require.NoError(t, err)
	assert.Equal(t, "PS-43", north.ID)

	// Re-importing keeps the stored location id
	_, _, err = importRoster(ctx, store, data)
	require.NoError(t, err)
	again, err := store.FindLocation(ctx, "PS", "42")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, again.ID)
}

func TestImportRoster_UnknownLocationRollsBack(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, _, err := importRoster(ctx, store, []byte(`
locations:
  - {type_code: PS, code: "42"}
observers:
  - {id: "1234", location: PS99}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PS99")

	_, err = store.FindLocation(ctx, "PS", "42")
	assert.Error(t, err, "location insert should be rolled back")
}

func TestPrintParse(t *testing.T) {
	noColor(t)

	h, err := handlers.NewMessageHandler(testutil.TestCatalog(t), nil, nil, testutil.GetTestConfig())
	require.NoError(t, err)
	renderer, err := compose.NewRenderer(nil)
	require.NoError(t, err)

	res, err := h.Parse(models.Message{Text: "1234ED5PS42BA10ZZ", ReceivedAt: testutil.Received(2021, 3, 6)})
	require.NoError(t, err)
	replies, err := renderer.Render(res.Reply)
	require.NoError(t, err)

	var buf bytes.Buffer
	printParse(&buf, res, replies)
	out := buf.String()

	assert.Contains(t, out, "Envelope: observer 1234, form ED, location PS42")
	assert.Contains(t, out, "Form:     election-day")
	assert.Contains(t, out, "activity election-week")
	assert.Contains(t, out, "Status:   unknown_tag")
	assert.Contains(t, out, "BA   10")
	assert.Contains(t, out, "Unknown tags: ZZ")
	assert.Contains(t, out, "Reply:")
}

func TestParseReceivedAt(t *testing.T) {
	got, err := parseReceivedAt("2021-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = parseReceivedAt("2021-03-10T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())

	_, err = parseReceivedAt("yesterday")
	assert.Error(t, err)
}

func TestRootCommand_Parse(t *testing.T) {
	noColor(t)

	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.TestCatalogYAML), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"parse", "-c", path, "--log-level", "error", "--received", "2021-03-10", "1234PB PS42", "AB5"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Status:   ok")
	assert.Contains(t, out.String(), "Thank you.")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--unknown-flag", "value"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}
