// Package controller owns the application state and runs one question at a
// time through the answer provider, off the presentation loop.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/studydesk/internal/answer"
	"github.com/conorfennell/studydesk/internal/domain"
)

const (
	ThinkingText = "思考中，请稍候..."
	LabelSubmit  = "提问"
	LabelBusy    = "思考中..."
)

// ErrBusy is returned by Submit while a previous question is still being answered.
var ErrBusy = errors.New("a question is already being answered")

// Phase is the submission state.
type Phase int

const (
	Idle Phase = iota
	AwaitingAnswer
)

func (p Phase) String() string {
	if p == AwaitingAnswer {
		return "awaiting"
	}
	return "idle"
}

// Asker produces answers; *answer.Provider implements it.
type Asker interface {
	Ask(ctx context.Context, subject domain.Subject, question string) answer.Result
}

// Store is the persistence the controller needs; *storage.DB implements it.
type Store interface {
	RecordAnswer(ctx context.Context, subject domain.Subject, question, answerText string, isCorrect bool) (domain.QuestionRecord, error)
	TodayStats(ctx context.Context) (questions, correct int, err error)
	SaveSetting(ctx context.Context, key, value string) error
	LoadSetting(ctx context.Context, key, def string) (string, error)
}

// AppState is everything the presentation layer renders. Callers get copies.
type AppState struct {
	Subject       domain.Subject
	Theme         domain.Theme
	Phase         Phase
	Output        string
	OutputIsError bool
	MarkCorrect   bool
	Questions     int
	Correct       int
	HasAPIKey     bool
	LastError     error
	pending       string
}

// SubmitLabel is the caption of the submit affordance for the current phase.
func (s AppState) SubmitLabel() string {
	if s.Phase == AwaitingAnswer {
		return LabelBusy
	}
	return LabelSubmit
}

// CanSubmit reports whether the submit affordance is enabled.
func (s AppState) CanSubmit() bool { return s.Phase == Idle }

// Controller mediates between the presentation, the provider and the store.
type Controller struct {
	asker    Asker
	store    Store
	logger   *slog.Logger
	watchdog time.Duration

	mu    sync.Mutex
	state AppState
}

// New creates a controller in the Idle phase with math selected.
// A zero watchdog waits for the provider indefinitely.
func New(asker Asker, store Store, watchdog time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		asker:    asker,
		store:    store,
		logger:   logger,
		watchdog: watchdog,
		state: AppState{
			Subject:     domain.Math,
			Theme:       domain.ThemeLight,
			MarkCorrect: true,
		},
	}
}

// Load reads the persisted theme, key presence and today's statistics.
func (c *Controller) Load(ctx context.Context) error {
	theme, err := c.store.LoadSetting(ctx, domain.SettingTheme, string(domain.ThemeLight))
	if err != nil {
		return c.fail(err)
	}
	key, err := c.store.LoadSetting(ctx, domain.SettingAPIKey, "")
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.state.Theme = domain.ParseTheme(theme)
	c.state.HasAPIKey = key != ""
	c.mu.Unlock()

	return c.RefreshStats(ctx)
}

// State returns a snapshot of the application state.
func (c *Controller) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectSubject changes the subject used for the next submission.
func (c *Controller) SelectSubject(s domain.Subject) error {
	if !s.Valid() {
		return &domain.ValidationError{Field: "subject", Reason: "unknown subject " + string(s)}
	}
	c.mu.Lock()
	c.state.Subject = s
	c.mu.Unlock()
	return nil
}

// ToggleCorrect flips whether the next answer is counted as correct.
func (c *Controller) ToggleCorrect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.MarkCorrect = !c.state.MarkCorrect
	return c.state.MarkCorrect
}

// SetTheme persists and applies a theme.
func (c *Controller) SetTheme(ctx context.Context, theme domain.Theme) error {
	if err := c.store.SaveSetting(ctx, domain.SettingTheme, string(theme)); err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.state.Theme = theme
	c.mu.Unlock()
	return nil
}

// SaveAPIKey persists the credential; the provider picks it up on the next question.
func (c *Controller) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := c.store.SaveSetting(ctx, domain.SettingAPIKey, key); err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.state.HasAPIKey = key != ""
	c.mu.Unlock()
	return nil
}

// RefreshStats reloads today's counters from the store.
func (c *Controller) RefreshStats(ctx context.Context) error {
	questions, correct, err := c.store.TodayStats(ctx)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.state.Questions = questions
	c.state.Correct = correct
	c.mu.Unlock()
	return nil
}

func (c *Controller) fail(err error) error {
	c.logger.Error("Controller operation failed", "error", err)
	c.mu.Lock()
	c.state.LastError = err
	c.mu.Unlock()
	return err
}
