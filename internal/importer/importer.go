// Package importer asks every new question found in a set of question sheets
// and records the exchanges in the study history.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studydesk/internal/answer"
	"github.com/conorfennell/studydesk/internal/domain"
	"github.com/conorfennell/studydesk/internal/gitsource"
	"github.com/conorfennell/studydesk/internal/knol"
	"github.com/conorfennell/studydesk/internal/parser"
)

// Store is the history the importer reads and appends to.
type Store interface {
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)
	Record(ctx context.Context, rec domain.QuestionRecord) (domain.QuestionRecord, error)
}

// Asker answers questions that the sheet leaves open.
type Asker interface {
	Ask(ctx context.Context, subject domain.Subject, question string) answer.Result
}

// Report summarises one import run.
type Report struct {
	Files    int
	Cards    int
	Skipped  int
	Recorded int
	Errors   []error
}

type Importer struct {
	store    Store
	asker    Asker
	reposDir string
	logger   *slog.Logger
}

func New(store Store, asker Asker, reposDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, asker: asker, reposDir: reposDir, logger: logger}
}

// Run imports source, which is a sheet file, a directory of sheets or a git URL.
// Cards without an "S:" subject use subject. Questions already in the history
// are skipped, so running the same source twice records nothing new.
func (im *Importer) Run(ctx context.Context, source string, subject domain.Subject) (Report, error) {
	var report Report
	if !subject.Valid() {
		return report, &domain.ValidationError{Field: "subject", Reason: "unknown subject " + string(subject)}
	}

	root := source
	if gitsource.IsGitURL(source) {
		localPath, err := gitsource.LocalPath(im.reposDir, source)
		if err != nil {
			return report, err
		}
		if err := gitsource.Sync(ctx, source, localPath, im.logger); err != nil {
			return report, err
		}
		root = localPath
	}
	if !exists(root) {
		return report, fmt.Errorf("source %s does not exist", root)
	}

	im.logger.Info("Starting import", "source", source, "subject", subject)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		report.Files++
		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, card := range cards {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Cards++
			im.importCard(ctx, card, subject, &report)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking %s: %w", root, walkErr)
	}

	im.logger.Info("Import complete",
		"source", source,
		"files", report.Files,
		"cards", report.Cards,
		"skipped", report.Skipped,
		"recorded", report.Recorded,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (im *Importer) importCard(ctx context.Context, card domain.Card, fallback domain.Subject, report *Report) {
	subject := card.Subject
	if subject == "" {
		subject = fallback
	}
	fingerprint := knol.Fingerprint(subject, card.Question)

	seen, err := im.store.HasFingerprint(ctx, fingerprint)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return
	}
	if seen {
		im.logger.Debug("Question already in history", "fingerprint", fingerprint)
		report.Skipped++
		return
	}

	text := card.Answer
	if text == "" {
		res := im.asker.Ask(ctx, subject, card.Question)
		if !res.OK() {
			// Left unrecorded so the next run asks again.
			report.Errors = append(report.Errors, fmt.Errorf("asking %q: %w", card.Question, res.Err))
			return
		}
		text = res.Text
	}

	difficulty := card.Difficulty
	if difficulty == 0 {
		difficulty = domain.DefaultDifficulty
	}
	if _, err := im.store.Record(ctx, domain.QuestionRecord{
		Subject:      subject,
		QuestionText: card.Question,
		AnswerText:   text,
		IsCorrect:    true,
		Difficulty:   difficulty,
		Fingerprint:  fingerprint,
	}); err != nil {
		report.Errors = append(report.Errors, err)
		return
	}
	im.logger.Info("Imported question", "fingerprint", fingerprint, "subject", subject)
	report.Recorded++
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
