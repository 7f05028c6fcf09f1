package domain

import "time"

const (
	// DefaultDifficulty is stored when the caller does not rate a question.
	DefaultDifficulty = 3
	// DateLayout is the calendar-date format used for daily statistics.
	DateLayout = "2006-01-02"
)

// QuestionRecord is one submitted question and the answer shown for it.
// Records are never updated or deleted once stored.
type QuestionRecord struct {
	ID           int64
	Subject      Subject `validate:"required,subject"`
	QuestionText string  `validate:"required"`
	AnswerText   string
	IsCorrect    bool
	Difficulty   int    `validate:"min=1,max=5"`
	Fingerprint  string `validate:"omitempty,len=64,hexadecimal"`
	CreatedAt    time.Time
}

// DailyStat aggregates the questions asked on one calendar date.
type DailyStat struct {
	Date           string
	QuestionsCount int
	CorrectCount   int
}

// Accuracy is the share of correct answers, or 0 for an empty day.
func (d DailyStat) Accuracy() float64 {
	if d.QuestionsCount == 0 {
		return 0
	}
	return float64(d.CorrectCount) / float64(d.QuestionsCount)
}

// Setting keys persisted in the settings table.
const (
	SettingAPIKey = "api_key"
	SettingTheme  = "theme"
)

// Theme names the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme falls back to the light theme for anything it does not know.
func ParseTheme(name string) Theme {
	if Theme(name) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
