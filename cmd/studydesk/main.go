package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studydesk/internal/answer"
	"github.com/conorfennell/studydesk/internal/config"
	"github.com/conorfennell/studydesk/internal/controller"
	"github.com/conorfennell/studydesk/internal/domain"
	"github.com/conorfennell/studydesk/internal/importer"
	"github.com/conorfennell/studydesk/internal/storage"
	"github.com/conorfennell/studydesk/internal/tui"
	"github.com/conorfennell/studydesk/internal/web"
)

const usage = `Usage: studydesk [command] [flags]

Commands:
  tui                          Interactive study assistant (default)
  serve                        Local web dashboard
  import [--subject s] SOURCE  Ask and record every new question in a sheet,
                               a directory of sheets or a git repository
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "studydesk:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. Pick the command and parse its flags
	command := "tui"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	switch command {
	case "tui", "serve", "import":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	flags := config.NewFlagSet("studydesk " + command)
	subjectCode := flags.String("subject", string(domain.Math), "Subject for import cards without an S: line")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nFlags:\n", flags.FlagUsages())
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.DB)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// 2. Set up logging; the terminal UI owns stdout, so it logs to a file
	var logOut io.Writer = os.Stderr
	if command == "tui" {
		f, err := cfg.Log.OpenFile()
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.Log.NewLogger(logOut)
	slog.SetDefault(logger)

	// 3. Open the database and wire the components
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Database opened", "path", cfg.DB)

	provider := answer.NewProvider(db, answer.Config{
		Endpoint:         cfg.LLM.Endpoint,
		Model:            cfg.LLM.Model,
		Timeout:          cfg.LLM.Timeout,
		PlaceholderDelay: cfg.LLM.PlaceholderDelay,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if command == "import" {
		subject, err := domain.ParseSubject(*subjectCode)
		if err != nil {
			return err
		}
		return runImport(ctx, importer.New(db, provider, cfg.ReposDir(), logger), flags.Args(), subject)
	}

	ctrl := controller.New(provider, db, cfg.Watchdog, logger)
	if err := ctrl.Load(ctx); err != nil {
		return err
	}

	if command == "serve" {
		return serve(ctx, cfg.Serve.Addr, web.NewServer(ctrl, db, logger), logger)
	}
	return tui.Run(ctx, ctrl)
}

func runImport(ctx context.Context, im *importer.Importer, sources []string, subject domain.Subject) error {
	if len(sources) == 0 {
		return errors.New("import needs at least one source")
	}

	var failed int
	for _, source := range sources {
		report, err := im.Run(ctx, source, subject)
		if err != nil {
			return fmt.Errorf("import %s: %w", source, err)
		}
		fmt.Printf("%s: %d files, %d cards, %d recorded, %d already known, %d errors.\n",
			source, report.Files, report.Cards, report.Recorded, report.Skipped, len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("- %s\n", e)
		}
		failed += len(report.Errors)
	}
	if failed > 0 {
		return fmt.Errorf("%d questions could not be imported", failed)
	}
	return nil
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info("Dashboard stopped")
	return nil
}
