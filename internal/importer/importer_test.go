package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/conorfennell/studydesk/internal/answer"
	"github.com/conorfennell/studydesk/internal/domain"
	"github.com/conorfennell/studydesk/internal/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingAsker struct {
	calls atomic.Int32
	fail  bool
}

func (a *countingAsker) Ask(_ context.Context, subject domain.Subject, question string) answer.Result {
	a.calls.Add(1)
	if a.fail {
		return answer.Result{Err: &domain.NetworkError{Err: errors.New("offline")}}
	}
	return answer.Result{Text: subject.DisplayName() + ": " + question}
}

func writeSheet(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write sheet: %v", err)
	}
}

func setup(t *testing.T) (*storage.DB, string) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	writeSheet(t, dir, "algebra.md", `
Q: Solve x + 3 = 5
A: x = 2
D: 1
---
Q: Factor x^2 - 1
`)
	writeSheet(t, dir, "physics.md", `
S: physics
Q: What is the unit of force?
`)
	writeSheet(t, dir, "notes.txt", "Q: ignored, not markdown")
	return db, dir
}

func TestRun(t *testing.T) {
	db, dir := setup(t)
	asker := &countingAsker{}
	im := New(db, asker, t.TempDir(), quietLogger)
	ctx := context.Background()

	report, err := im.Run(ctx, dir, domain.Math)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Files != 2 || report.Cards != 3 || report.Recorded != 3 || len(report.Errors) != 0 {
		t.Fatalf("Unexpected report: %+v", report)
	}
	if asker.calls.Load() != 2 {
		t.Errorf("Expected only unanswered cards to be asked, got %d calls", asker.calls.Load())
	}

	records, err := db.RecentQuestions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentQuestions failed: %v", err)
	}
	bySubject := map[domain.Subject]int{}
	for _, r := range records {
		bySubject[r.Subject]++
		if r.QuestionText == "Solve x + 3 = 5" && (r.AnswerText != "x = 2" || r.Difficulty != 1) {
			t.Errorf("Expected sheet answer and difficulty to be kept, got %+v", r)
		}
		if r.QuestionText == "What is the unit of force?" && !strings.HasPrefix(r.AnswerText, "物理") {
			t.Errorf("Expected the physics subject to reach the provider, got %q", r.AnswerText)
		}
	}
	if bySubject[domain.Math] != 2 || bySubject[domain.Physics] != 1 {
		t.Errorf("Unexpected subjects: %v", bySubject)
	}

	questions, correct, _ := db.TodayStats(ctx)
	if questions != 3 || correct != 3 {
		t.Errorf("Expected imported questions to count today, got (%d, %d)", questions, correct)
	}
}

func TestRunTwiceSkipsKnownQuestions(t *testing.T) {
	db, dir := setup(t)
	asker := &countingAsker{}
	im := New(db, asker, t.TempDir(), quietLogger)
	ctx := context.Background()

	if _, err := im.Run(ctx, dir, domain.Math); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	report, err := im.Run(ctx, dir, domain.Math)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report.Skipped != 3 || report.Recorded != 0 {
		t.Errorf("Expected everything to be skipped, got %+v", report)
	}
	if asker.calls.Load() != 2 {
		t.Errorf("Expected no new provider calls, got %d total", asker.calls.Load())
	}
}

func TestRunProviderFailureLeavesCardForLater(t *testing.T) {
	db, dir := setup(t)
	im := New(db, &countingAsker{fail: true}, t.TempDir(), quietLogger)

	report, err := im.Run(context.Background(), dir, domain.Math)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Recorded != 1 || len(report.Errors) != 2 {
		t.Errorf("Expected 1 recorded and 2 failed cards, got %+v", report)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	db, dir := setup(t)
	im := New(db, &countingAsker{}, t.TempDir(), quietLogger)
	ctx := context.Background()

	if _, err := im.Run(ctx, dir, "alchemy"); err == nil {
		t.Error("Expected an unknown default subject to be rejected")
	}
	if _, err := im.Run(ctx, filepath.Join(dir, "missing"), domain.Math); err == nil {
		t.Error("Expected a missing source to be rejected")
	}
}

func TestRunReportsParseErrors(t *testing.T) {
	db, dir := setup(t)
	writeSheet(t, dir, "broken.md", "S: alchemy\nQ: lead into gold?")
	im := New(db, &countingAsker{}, t.TempDir(), quietLogger)

	report, err := im.Run(context.Background(), dir, domain.Math)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Errors) != 1 || report.Recorded != 3 {
		t.Errorf("Expected the broken sheet to be reported and the rest imported, got %+v", report)
	}
}
