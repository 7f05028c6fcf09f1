package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/studydesk/internal/domain"
	"github.com/conorfennell/studydesk/internal/knol"
)

const dateLayout = domain.DateLayout

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}

// RecordAnswer stores a question with the default difficulty and counts it
// towards today's statistics.
func (db *DB) RecordAnswer(ctx context.Context, subject domain.Subject, question, answer string, isCorrect bool) (domain.QuestionRecord, error) {
	return db.Record(ctx, domain.QuestionRecord{
		Subject:      subject,
		QuestionText: question,
		AnswerText:   answer,
		IsCorrect:    isCorrect,
		Difficulty:   domain.DefaultDifficulty,
	})
}

// Record inserts a question record and upserts the daily statistic in one transaction.
// The counter update is a single conflict-resolving write, never read-then-write.
func (db *DB) Record(ctx context.Context, rec domain.QuestionRecord) (domain.QuestionRecord, error) {
	if rec.Difficulty == 0 {
		rec.Difficulty = domain.DefaultDifficulty
	}
	if rec.Fingerprint == "" {
		rec.Fingerprint = knol.Fingerprint(rec.Subject, rec.QuestionText)
	}
	if err := rec.Validate(); err != nil {
		return domain.QuestionRecord{}, err
	}
	rec.CreatedAt = db.now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.QuestionRecord{}, storageErr("begin record", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO questions (subject, question_text, answer_text, is_correct, difficulty, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		string(rec.Subject),
		rec.QuestionText,
		rec.AnswerText,
		rec.IsCorrect,
		rec.Difficulty,
		rec.Fingerprint,
		rec.CreatedAt,
	)
	if err != nil {
		return domain.QuestionRecord{}, storageErr("insert question", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return domain.QuestionRecord{}, storageErr("insert question", err)
	}

	correct := 0
	if rec.IsCorrect {
		correct = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, questions_count, correct_count)
		VALUES (?, 1, ?)
		ON CONFLICT(date) DO UPDATE SET
			questions_count = questions_count + 1,
			correct_count = correct_count + excluded.correct_count
	`, rec.CreatedAt.Format(dateLayout), correct)
	if err != nil {
		return domain.QuestionRecord{}, storageErr("upsert daily stat", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.QuestionRecord{}, storageErr("commit record", err)
	}
	return rec, nil
}

// TodayStats returns the question and correct counts for the current date,
// or zeroes when nothing has been asked yet.
func (db *DB) TodayStats(ctx context.Context) (questions, correct int, err error) {
	stat, err := db.StatsForDate(ctx, db.today())
	if err != nil {
		return 0, 0, err
	}
	return stat.QuestionsCount, stat.CorrectCount, nil
}

// StatsForDate returns the statistic for date (YYYY-MM-DD); a missing row is a zero stat.
func (db *DB) StatsForDate(ctx context.Context, date string) (domain.DailyStat, error) {
	stat := domain.DailyStat{Date: date}
	err := db.conn.QueryRowContext(ctx, `
		SELECT questions_count, correct_count
		FROM daily_stats WHERE date = ?
	`, date).Scan(&stat.QuestionsCount, &stat.CorrectCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stat, nil
		}
		return domain.DailyStat{}, storageErr(fmt.Sprintf("stats for %s", date), err)
	}
	return stat, nil
}

// RecentStats returns the statistics of the last days dates that have any, oldest first.
func (db *DB) RecentStats(ctx context.Context, days int) ([]domain.DailyStat, error) {
	since := db.now().AddDate(0, 0, -(days - 1)).Format(dateLayout)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date, questions_count, correct_count
		FROM daily_stats WHERE date >= ?
		ORDER BY date ASC
	`, since)
	if err != nil {
		return nil, storageErr("recent stats", err)
	}
	defer rows.Close()

	var stats []domain.DailyStat
	for rows.Next() {
		var s domain.DailyStat
		if err := rows.Scan(&s.Date, &s.QuestionsCount, &s.CorrectCount); err != nil {
			return nil, storageErr("scan daily stat", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("recent stats", err)
	}
	return stats, nil
}

// RecentQuestions returns up to limit records, newest first.
func (db *DB) RecentQuestions(ctx context.Context, limit int) ([]domain.QuestionRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, subject, question_text, answer_text, is_correct, difficulty, fingerprint, created_at
		FROM questions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageErr("recent questions", err)
	}
	defer rows.Close()

	var records []domain.QuestionRecord
	for rows.Next() {
		var r domain.QuestionRecord
		var subject string
		if err := rows.Scan(
			&r.ID,
			&subject,
			&r.QuestionText,
			&r.AnswerText,
			&r.IsCorrect,
			&r.Difficulty,
			&r.Fingerprint,
			&r.CreatedAt,
		); err != nil {
			return nil, storageErr("scan question", err)
		}
		r.Subject = domain.Subject(subject)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("recent questions", err)
	}
	return records, nil
}

// HasFingerprint reports whether a question with this fingerprint was recorded before.
func (db *DB) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM questions WHERE fingerprint = ?)
	`, fingerprint).Scan(&exists)
	if err != nil {
		return false, storageErr("lookup fingerprint", err)
	}
	return exists, nil
}
