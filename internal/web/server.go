package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/studydesk/internal/controller"
	"github.com/conorfennell/studydesk/internal/domain"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

const (
	historyDays  = 14
	historyLimit = 20
)

// History is the read side of the store shown on the dashboard.
type History interface {
	RecentQuestions(ctx context.Context, limit int) ([]domain.QuestionRecord, error)
	RecentStats(ctx context.Context, days int) ([]domain.DailyStat, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	ctrl      *controller.Controller
	history   History
	router    *http.ServeMux
	templates *template.Template
	logger    *slog.Logger
}

var funcs = template.FuncMap{
	"percent": func(s domain.DailyStat) string {
		return formatPercent(s.Accuracy())
	},
	"subjectName": func(s domain.Subject) string { return s.DisplayName() },
	"when":        func(t time.Time) string { return t.Format("01-02 15:04") },
}

// NewServer creates and configures a new server.
func NewServer(ctrl *controller.Controller, history History, logger *slog.Logger) *Server {
	tpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html"))

	s := &Server{
		ctrl:      ctrl,
		history:   history,
		router:    http.NewServeMux(),
		templates: tpl,
		logger:    logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleDashboard())
	s.router.HandleFunc("POST /ask", s.handleAsk())
	s.router.HandleFunc("GET /settings", s.handleGetSettings())
	s.router.HandleFunc("POST /settings", s.handlePostSettings())
}

type dashboard struct {
	State    controller.AppState
	Subjects []domain.Subject
	Today    domain.DailyStat
	Days     []domain.DailyStat
	Records  []domain.QuestionRecord
	Question string
	Notice   string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render template", "template", name, "error", err)
	}
}

// renderDashboard loads everything the dashboard shows and writes it with status.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, question, notice string) {
	ctx := r.Context()
	days, err := s.history.RecentStats(ctx, historyDays)
	if err != nil {
		s.storageFailure(w, err)
		return
	}
	records, err := s.history.RecentQuestions(ctx, historyLimit)
	if err != nil {
		s.storageFailure(w, err)
		return
	}

	st := s.ctrl.State()
	s.render(w, status, "dashboard", dashboard{
		State:    st,
		Subjects: domain.Subjects,
		Today:    domain.DailyStat{QuestionsCount: st.Questions, CorrectCount: st.Correct},
		Days:     days,
		Records:  records,
		Question: question,
		Notice:   notice,
	})
}

func (s *Server) storageFailure(w http.ResponseWriter, err error) {
	s.logger.Error("Storage failure", "error", err)
	http.Error(w, "Storage error: "+err.Error(), http.StatusInternalServerError)
}

// handleDashboard renders today's stats, the last two weeks and recent questions.
func (s *Server) handleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ctrl.RefreshStats(r.Context()); err != nil {
			s.storageFailure(w, err)
			return
		}
		s.renderDashboard(w, r, http.StatusOK, "", "")
	}
}

// handleAsk answers a question through the controller and re-renders the dashboard.
func (s *Server) handleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := r.PostFormValue("question")
		subject, err := domain.ParseSubject(r.PostFormValue("subject"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		_, err = s.ctrl.AskWith(r.Context(), controller.Submission{
			Subject:     subject,
			Question:    question,
			MarkCorrect: r.PostFormValue("incorrect") == "",
		})
		switch {
		case errors.Is(err, domain.ErrEmptyQuestion):
			s.renderDashboard(w, r, http.StatusBadRequest, question, "请输入问题")
		case errors.Is(err, controller.ErrBusy):
			s.renderDashboard(w, r, http.StatusConflict, question, "上一个问题还在回答中，请稍候")
		case err != nil:
			s.logger.Error("Failed to record answer", "error", err)
			s.renderDashboard(w, r, http.StatusOK, "", "保存记录失败："+err.Error())
		default:
			notice := ""
			if st := s.ctrl.State(); st.LastError != nil {
				notice = st.LastError.Error()
			}
			s.renderDashboard(w, r, http.StatusOK, "", notice)
		}
	}
}

// handleGetSettings renders the settings form.
func (s *Server) handleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "settings", map[string]any{
			"State": s.ctrl.State(),
		})
	}
}

// handlePostSettings saves the API key (when given) and the theme.
func (s *Server) handlePostSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if key := r.PostFormValue("api_key"); key != "" || r.PostFormValue("clear_key") != "" {
			if err := s.ctrl.SaveAPIKey(ctx, key); err != nil {
				s.storageFailure(w, err)
				return
			}
		}
		if theme := r.PostFormValue("theme"); theme != "" {
			if err := s.ctrl.SetTheme(ctx, domain.ParseTheme(theme)); err != nil {
				s.storageFailure(w, err)
				return
			}
		}
		s.render(w, http.StatusOK, "settings", map[string]any{
			"State":  s.ctrl.State(),
			"Notice": "设置已保存",
		})
	}
}
