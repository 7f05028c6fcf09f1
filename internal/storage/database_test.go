package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/studydesk/internal/domain"
	"github.com/conorfennell/studydesk/internal/knol"
)

// clock is a settable time source shared by a test and its DB.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openTestDB(t *testing.T) (*DB, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)}
	db, err := Open(filepath.Join(t.TempDir(), "studydesk.db"), WithClock(c.now))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, c
}

func TestTodayStatsEmpty(t *testing.T) {
	db, _ := openTestDB(t)

	questions, correct, err := db.TodayStats(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if questions != 0 || correct != 0 {
		t.Errorf("Expected (0, 0) on an empty day, got (%d, %d)", questions, correct)
	}
}

func TestRecordAnswerCounts(t *testing.T) {
	testCases := []struct {
		name    string
		results []bool
	}{
		{"single correct", []bool{true}},
		{"single incorrect", []bool{false}},
		{"one of two incorrect", []bool{true, false}},
		{"incorrect first", []bool{false, true, true, false, true}},
		{"all incorrect", []bool{false, false, false}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, _ := openTestDB(t)
			ctx := context.Background()

			wantCorrect := 0
			for i, ok := range tc.results {
				if ok {
					wantCorrect++
				}
				if _, err := db.RecordAnswer(ctx, domain.Math, "question", "answer", ok); err != nil {
					t.Fatalf("RecordAnswer #%d failed: %v", i, err)
				}
			}

			questions, correct, err := db.TodayStats(ctx)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if questions != len(tc.results) || correct != wantCorrect {
				t.Errorf("Expected (%d, %d), got (%d, %d)", len(tc.results), wantCorrect, questions, correct)
			}
		})
	}
}

func TestRecordAnswerStoresRecord(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	rec, err := db.RecordAnswer(ctx, domain.Math, "2+2=?", "4", true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.ID == 0 {
		t.Error("Expected the record to get an ID")
	}
	if rec.Difficulty != domain.DefaultDifficulty {
		t.Errorf("Expected default difficulty %d, got %d", domain.DefaultDifficulty, rec.Difficulty)
	}
	if !rec.CreatedAt.Equal(c.t) {
		t.Errorf("Expected created_at %v, got %v", c.t, rec.CreatedAt)
	}

	records, err := db.RecentQuestions(ctx, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Subject != domain.Math || got.QuestionText != "2+2=?" || got.AnswerText != "4" || !got.IsCorrect {
		t.Errorf("Stored record does not match: %+v", got)
	}
	if got.Fingerprint != knol.Fingerprint(domain.Math, "2+2=?") {
		t.Errorf("Expected fingerprint to be derived from subject and question, got %q", got.Fingerprint)
	}
}

func TestRecordRejectsInvalid(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	_, err := db.Record(ctx, domain.QuestionRecord{Subject: domain.Math, QuestionText: "q", Difficulty: 9})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	questions, _, _ := db.TodayStats(ctx)
	if questions != 0 {
		t.Errorf("Expected a rejected record not to be counted, got %d", questions)
	}
}

func TestStatsAreKeptPerDay(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	db.RecordAnswer(ctx, domain.Physics, "q1", "a1", true)
	db.RecordAnswer(ctx, domain.Physics, "q2", "a2", false)

	c.t = c.t.AddDate(0, 0, 1)
	questions, correct, err := db.TodayStats(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if questions != 0 || correct != 0 {
		t.Errorf("Expected a fresh day to start at (0, 0), got (%d, %d)", questions, correct)
	}

	db.RecordAnswer(ctx, domain.Physics, "q3", "a3", true)

	stats, err := db.RecentStats(ctx, 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 days of stats, got %d", len(stats))
	}
	if stats[0].Date != "2026-03-14" || stats[0].QuestionsCount != 2 || stats[0].CorrectCount != 1 {
		t.Errorf("Unexpected first day: %+v", stats[0])
	}
	if stats[1].Date != "2026-03-15" || stats[1].QuestionsCount != 1 || stats[1].CorrectCount != 1 {
		t.Errorf("Unexpected second day: %+v", stats[1])
	}
}

func TestHasFingerprint(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()
	fp := knol.Fingerprint(domain.Chemistry, "What is a mole?")

	found, err := db.HasFingerprint(ctx, fp)
	if err != nil || found {
		t.Fatalf("Expected no fingerprint yet, got %v (err %v)", found, err)
	}

	db.RecordAnswer(ctx, domain.Chemistry, "what is a mole?", "6.022e23 particles", true)

	found, err = db.HasFingerprint(ctx, fp)
	if err != nil || !found {
		t.Errorf("Expected fingerprint to be found, got %v (err %v)", found, err)
	}
}

func TestSettings(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	t.Run("default before save", func(t *testing.T) {
		v, err := db.LoadSetting(ctx, domain.SettingTheme, "light")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v != "light" {
			t.Errorf("Expected default 'light', got %q", v)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		for _, v := range []string{"dark", "light", "dark"} {
			if err := db.SaveSetting(ctx, domain.SettingTheme, v); err != nil {
				t.Fatalf("SaveSetting failed: %v", err)
			}
		}
		v, err := db.LoadSetting(ctx, domain.SettingTheme, "light")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v != "dark" {
			t.Errorf("Expected 'dark', got %q", v)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		v, _ := db.LoadSetting(ctx, domain.SettingAPIKey, "")
		if v != "" {
			t.Errorf("Expected empty API key, got %q", v)
		}
	})
}

func TestClosedDatabaseReturnsStorageError(t *testing.T) {
	db, _ := openTestDB(t)
	db.Close()
	ctx := context.Background()

	if _, err := db.RecordAnswer(ctx, domain.Math, "q", "a", true); !domain.IsStorage(err) {
		t.Errorf("Expected StorageError from RecordAnswer, got %v", err)
	}
	if _, _, err := db.TodayStats(ctx); !domain.IsStorage(err) {
		t.Errorf("Expected StorageError from TodayStats, got %v", err)
	}
	if err := db.SaveSetting(ctx, "k", "v"); !domain.IsStorage(err) {
		t.Errorf("Expected StorageError from SaveSetting, got %v", err)
	}
	if _, err := db.LoadSetting(ctx, "k", ""); !domain.IsStorage(err) {
		t.Errorf("Expected StorageError from LoadSetting, got %v", err)
	}
}
