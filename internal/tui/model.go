// Package tui is the terminal front end: a Bubble Tea program that drives the
// controller and renders its state.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/conorfennell/studydesk/internal/controller"
	"github.com/conorfennell/studydesk/internal/domain"
)

type screen int

const (
	askScreen screen = iota
	settingsScreen
)

// completionMsg carries a finished task back onto the update loop.
type completionMsg controller.Completion

// Model is the root Bubble Tea model.
type Model struct {
	ctx      context.Context
	ctrl     *controller.Controller
	screen   screen
	question textinput.Model
	apiKey   textinput.Model
	styles   Styles
	notice   string
	width    int
}

// New creates the model. ctrl must already be loaded.
func New(ctx context.Context, ctrl *controller.Controller) Model {
	question := textinput.New()
	question.Placeholder = "输入你的问题，回车提问"
	question.CharLimit = 2000
	question.Focus()

	apiKey := textinput.New()
	apiKey.Placeholder = "sk-..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		question: question,
		apiKey:   apiKey,
		styles:   NewStyles(ctrl.State().Theme),
		width:    80,
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller) error {
	_, err := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case completionMsg:
		return m.complete(controller.Completion(msg))
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == settingsScreen {
			return m.updateSettings(msg)
		}
		return m.updateAsk(msg)
	}
	return m, nil
}

func (m Model) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyTab:
		m.ctrl.SelectSubject(m.ctrl.State().Subject.Next())
		return m, nil
	case tea.KeyShiftTab:
		m.ctrl.SelectSubject(m.ctrl.State().Subject.Prev())
		return m, nil
	case tea.KeyCtrlT:
		m.ctrl.ToggleCorrect()
		return m, nil
	case tea.KeyCtrlS:
		m.screen = settingsScreen
		m.notice = ""
		m.question.Blur()
		return m, m.apiKey.Focus()
	}

	var cmd tea.Cmd
	m.question, cmd = m.question.Update(msg)
	return m, cmd
}

// submit hands the question to the controller and waits for it off the loop.
func (m Model) submit() (tea.Model, tea.Cmd) {
	task, err := m.ctrl.Submit(m.ctx, m.question.Value())
	if err != nil {
		// Empty input and a pending question leave everything as it is.
		return m, nil
	}
	m.notice = ""
	m.question.Reset()
	m.question.Blur()

	watchdog := m.ctrl.Watchdog()
	ctx := m.ctx
	return m, func() tea.Msg {
		return completionMsg(task.Wait(ctx, watchdog))
	}
}

func (m Model) complete(comp controller.Completion) (tea.Model, tea.Cmd) {
	if err := m.ctrl.Complete(m.ctx, comp); err != nil {
		var terr *domain.TimeoutError
		switch {
		case errors.As(err, &terr):
			m.notice = "等待回答超时，已恢复输入：" + err.Error()
		case domain.IsStorage(err):
			m.notice = "保存记录失败：" + err.Error()
		default:
			m.notice = err.Error()
		}
	}
	return m, m.question.Focus()
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = askScreen
		m.apiKey.Blur()
		return m, m.question.Focus()
	case tea.KeyEnter:
		if err := m.ctrl.SaveAPIKey(m.ctx, m.apiKey.Value()); err != nil {
			m.notice = "保存 API Key 失败：" + err.Error()
			return m, nil
		}
		m.apiKey.Reset()
		m.notice = "API Key 已保存"
		return m, nil
	case tea.KeyCtrlD:
		next := domain.ThemeDark
		if m.ctrl.State().Theme == domain.ThemeDark {
			next = domain.ThemeLight
		}
		if err := m.ctrl.SetTheme(m.ctx, next); err != nil {
			m.notice = "保存主题失败：" + err.Error()
			return m, nil
		}
		m.styles = NewStyles(next)
		return m, nil
	}

	var cmd tea.Cmd
	m.apiKey, cmd = m.apiKey.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.screen == settingsScreen {
		return m.viewSettings()
	}
	return m.viewAsk()
}

func (m Model) viewAsk() string {
	st := m.ctrl.State()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("学习助手"))
	b.WriteString("\n\n")

	subjects := make([]string, 0, len(domain.Subjects))
	for _, s := range domain.Subjects {
		if s == st.Subject {
			subjects = append(subjects, m.styles.Selected.Render(s.DisplayName()))
		} else {
			subjects = append(subjects, m.styles.Subject.Render(s.DisplayName()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, subjects...))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Stats.Render(statsLine(st)))
	b.WriteString("\n\n")

	button := m.styles.Button.Render(st.SubmitLabel())
	if !st.CanSubmit() {
		button = m.styles.Disabled.Render(st.SubmitLabel())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, m.question.View(), " ", button))
	b.WriteString("\n\n")

	if st.Output != "" {
		style := m.styles.Output
		if st.OutputIsError {
			style = m.styles.Error
		}
		b.WriteString(style.Width(max(m.width-4, 20)).Render(st.Output))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter 提问 · tab/shift+tab 切换科目 · ctrl+t 标记对错 · ctrl+s 设置 · esc 退出"))
	return b.String()
}

func (m Model) viewSettings() string {
	st := m.ctrl.State()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("设置"))
	b.WriteString("\n\n")

	keyState := "未配置（使用示例回答）"
	if st.HasAPIKey {
		keyState = "已配置"
	}
	fmt.Fprintf(&b, "API Key：%s\n%s\n\n", keyState, m.apiKey.View())
	fmt.Fprintf(&b, "主题：%s\n\n", st.Theme)

	if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.Help.Render("enter 保存 API Key · ctrl+d 切换主题 · esc 返回"))
	return b.String()
}

func statsLine(st controller.AppState) string {
	mark := "正确"
	if !st.MarkCorrect {
		mark = "错误"
	}
	accuracy := domain.DailyStat{QuestionsCount: st.Questions, CorrectCount: st.Correct}.Accuracy()
	return fmt.Sprintf("今日提问 %d · 正确 %d · 正确率 %.0f%% · 本题计为%s",
		st.Questions, st.Correct, accuracy*100, mark)
}
