// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/models"
	"github.com/danielhkuo/fieldcode/testutil"
)

func TestCreateSchema_Idempotent(t *testing.T) {
	store := testutil.SetupTestDB(t)

	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("Second migration failed: %v", err)
	}
}

func TestObserverAndLocation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	loc := &models.Location{ID: "loc-1", TypeCode: "PS", Code: "42", Name: "School"}
	require.NoError(t, store.UpsertLocation(ctx, loc))

	// Upserting the same type/code keeps the original id.
	again := &models.Location{ID: "loc-other", TypeCode: "PS", Code: "42", Name: "Renamed School"}
	require.NoError(t, store.UpsertLocation(ctx, again))
	assert.Equal(t, "loc-1", again.ID)

	got, err := store.FindLocation(ctx, "PS", "42")
	require.NoError(t, err)
	assert.Equal(t, "Renamed School", got.Name)

	_, err = store.FindLocation(ctx, "PS", "43")
	assert.ErrorIs(t, err, db.ErrNotFound)

	obs := &models.Observer{ID: "1234", Name: "Ada", Role: "observer", LocationID: "loc-1"}
	require.NoError(t, store.UpsertObserver(ctx, obs))

	gotObs, err := store.FindObserver(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, obs, gotObs)

	noLoc := &models.Observer{ID: "99", Name: "Bo"}
	require.NoError(t, store.UpsertObserver(ctx, noLoc))
	gotObs, err = store.FindObserver(ctx, "99")
	require.NoError(t, err)
	assert.Empty(t, gotObs.LocationID)

	_, err = store.FindObserver(ctx, "404")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSubmissionRoundTrip(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.CreateTestObserver(t, store, "1234", "PS", "42")

	created := time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC)
	sub := &models.Submission{
		ID:         "sub-1",
		ObserverID: "1234",
		FormID:     "pre-election",
		LocationID: "PS-42",
		ReportDate: models.NewDate(2021, 3, 10),
		Data: map[string]models.Value{
			"AA": models.BoolValue(),
			"AB": models.IntValue(5),
			"AC": models.IntsValue([]int{1, 2}),
		},
		SenderHash: "abc",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, store.CreateSubmission(ctx, sub))

	got, err := store.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, sub.ReportDate, got.ReportDate)
	assert.Equal(t, "abc", got.SenderHash)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.Data["AB"].Equal(models.IntValue(5)))
	assert.True(t, got.Data["AC"].Equal(models.IntsValue([]int{1, 2})))
	assert.True(t, got.Data["AA"].Equal(models.BoolValue()))

	got.Data["AB"] = models.IntValue(7)
	got.Comment = "late"
	got.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, store.UpdateSubmission(ctx, got))

	again, err := store.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 7, again.Data["AB"].Int)
	assert.Equal(t, "late", again.Comment)

	missing := *got
	missing.ID = "nope"
	assert.ErrorIs(t, store.UpdateSubmission(ctx, &missing), db.ErrNotFound)

	_, err = store.GetSubmission(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFindSubmissions_PeriodAndOrder(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.CreateTestObserver(t, store, "1234", "PS", "42")

	base := time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC)
	insert := func(id string, date models.Date, createdOffset time.Duration) {
		t.Helper()
		s := &models.Submission{
			ID: id, ObserverID: "1234", FormID: "f", LocationID: "PS-42",
			ReportDate: date, CreatedAt: base.Add(createdOffset), UpdatedAt: base.Add(createdOffset),
		}
		require.NoError(t, store.CreateSubmission(ctx, s))
	}

	insert("late", models.NewDate(2021, 3, 2), 2*time.Hour)
	insert("early", models.NewDate(2021, 3, 5), time.Hour)
	insert("outside", models.NewDate(2021, 3, 8), 0)

	p := models.ReportingPeriod{Start: models.NewDate(2021, 3, 1), End: models.NewDate(2021, 3, 8)}
	subs, err := store.FindSubmissions(ctx, "1234", "f", p)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "early", subs[0].ID)
	assert.Equal(t, "late", subs[1].ID)

	subs, err = store.FindSubmissions(ctx, "1234", "other-form", p)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestNotes(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.CreateTestObserver(t, store, "1234", "PS", "42")

	now := time.Now().UTC()
	sub := &models.Submission{ID: "s", ObserverID: "1234", FormID: "f", LocationID: "PS-42",
		ReportDate: models.DateOf(now), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateSubmission(ctx, sub))

	require.NoError(t, store.AddNote(ctx, &models.Note{ID: "n2", SubmissionID: "s", Text: "second", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, store.AddNote(ctx, &models.Note{ID: "n1", SubmissionID: "s", Text: "first", CreatedAt: now}))

	notes, err := store.ListNotes(ctx, "s")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Text)
	assert.Equal(t, "second", notes[1].Text)
}

func TestInTx_RollsBack(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(q *db.Queries) error {
		if err := q.UpsertObserver(ctx, &models.Observer{ID: "tx-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, db.ErrConflict)

	_, err = store.FindObserver(ctx, "tx-1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	err = store.InTx(ctx, func(q *db.Queries) error {
		return q.UpsertObserver(ctx, &models.Observer{ID: "tx-2"})
	})
	require.NoError(t, err)
	_, err = store.FindObserver(ctx, "tx-2")
	assert.NoError(t, err)
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"wrapped serialization failure", errors.Join(errors.New("ctx"), &pq.Error{Code: "40001"}), true},
		{"plain error", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.IsConflict(tt.err))
		})
	}
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "whatever")
	assert.Error(t, err)
}
