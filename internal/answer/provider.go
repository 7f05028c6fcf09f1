// Package answer produces explanations for student questions, either from a
// remote chat-completion service or as a placeholder when no API key is set.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/studydesk/internal/domain"
)

const (
	DefaultEndpoint         = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel            = "deepseek-chat"
	DefaultTimeout          = 15 * time.Second
	DefaultPlaceholderDelay = time.Second
)

// SettingsLoader is the part of the settings store the provider reads the API key from.
type SettingsLoader interface {
	LoadSetting(ctx context.Context, key, def string) (string, error)
}

// Config holds the remote endpoint details.
type Config struct {
	Endpoint         string
	Model            string
	Timeout          time.Duration
	PlaceholderDelay time.Duration
}

// Provider answers questions. It is safe to call Ask from any goroutine.
type Provider struct {
	settings SettingsLoader
	client   *http.Client
	cfg      Config
	logger   *slog.Logger
}

// NewProvider builds a Provider; zero config fields take the package defaults.
func NewProvider(settings SettingsLoader, cfg Config, logger *slog.Logger) *Provider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PlaceholderDelay < 0 {
		cfg.PlaceholderDelay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		settings: settings,
		client:   &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		logger:   logger,
	}
}

// Result is either the answer text or the error that prevented one.
type Result struct {
	Text        string
	Err         error
	Placeholder bool
}

// OK reports whether the result carries a real answer.
func (r Result) OK() bool { return r.Err == nil }

// Display is the text to show the student; failures are rendered readably.
func (r Result) Display() string {
	if r.Err != nil {
		return fmt.Sprintf("请求失败：%v", r.Err)
	}
	return r.Text
}

// Ask blocks until an answer is available. Call it off the UI loop.
func (p *Provider) Ask(ctx context.Context, subject domain.Subject, question string) Result {
	key, err := p.settings.LoadSetting(ctx, domain.SettingAPIKey, "")
	if err != nil {
		p.logger.Error("Failed to load API key", "error", err)
		return Result{Err: err}
	}

	if key == "" {
		return p.placeholder(ctx, subject, question)
	}

	p.logger.Info("Sending chat request", "subject", subject, "model", p.cfg.Model)
	text, err := p.complete(ctx, key, subject, question)
	if err != nil {
		p.logger.Warn("Chat request failed", "subject", subject, "error", err)
		return Result{Err: err}
	}
	return Result{Text: text}
}

func (p *Provider) placeholder(ctx context.Context, subject domain.Subject, question string) Result {
	timer := time.NewTimer(p.cfg.PlaceholderDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
	return Result{Text: PlaceholderText(subject, question), Placeholder: true}
}

// PlaceholderText is the canned answer used while no API key is configured.
func PlaceholderText(subject domain.Subject, question string) string {
	return fmt.Sprintf(
		"【%s】示例讲解\n\n你的问题：%s\n\n当前未配置 API Key，这是一条占位回答。"+
			"请在设置中填写 API Key 后即可获得 AI 老师的详细讲解。",
		subject.DisplayName(), question,
	)
}
