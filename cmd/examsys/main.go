package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examsys/internal/bank"
	"github.com/pavelanni/examsys/internal/handler"
	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/llm"
	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examsys",
		Short: "Academic examination system",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), exportCmd(), userCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func dbFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "examsys.db", "SQLite path or PostgreSQL DSN")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	dbFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default UI language (en, ar)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.Duration("session-ttl", store.DefaultSessionTTL, "Login session lifetime")
	f.Duration("session-cleanup", time.Hour, "Interval for purging expired sessions")
	f.String("llm-url", "", "OpenAI-compatible API base URL for the study advisor (empty disables it)")
	f.String("llm-key", "", "API key for the study advisor")
	f.String("llm-model", "llama3.2", "Study advisor model name")
	f.String("manager-email", "", "Email of the initial manager account")
	f.String("manager-password", "", "Password of the initial manager account (or set EXAMSYS_MANAGER_PASSWORD)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a question bank JSON file",
		RunE:  runImport,
	}
	dbFlags(cmd)
	cmd.Flags().StringP("file", "f", "", "Question bank file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export exam results as JSON",
		RunE:  runExport,
	}
	dbFlags(cmd)
	f := cmd.Flags()
	f.Int64("exam-id", 0, "Exam to export (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	_ = cmd.MarkFlagRequired("exam-id")
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE:  runUserAdd,
	}
	dbFlags(add)
	f := add.Flags()
	f.String("first-name", "", "First name (required)")
	f.String("last-name", "", "Last name")
	f.String("email", "", "Email (required)")
	f.String("password", "", "Password (required)")
	f.String("role", string(model.RoleStudent), "Role (Student, Instructor, Manager)")
	_ = add.MarkFlagRequired("first-name")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")
	user.AddCommand(add)
	return user
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMSYS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examsys")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examsys")
	v.AddConfigPath("/etc/examsys")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(ctx context.Context, v *viper.Viper) (*store.Store, error) {
	db, err := store.New(ctx, store.Driver(v.GetString("db-driver")), v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seedManager(ctx, db, v.GetString("manager-email"), v.GetString("manager-password")); err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var advisor handler.Advisor
	if url := v.GetString("llm-url"); url != "" {
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.Ping(pctx); err != nil {
			slog.Warn("study advisor unreachable, insights will use built-in tips only", "url", url, "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		}
		cancel()
		advisor = client
	}

	cfg := model.AppConfig{
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
		SessionTTL:    v.GetDuration("session-ttl"),
	}
	h := handler.New(db, advisor, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(cfg.SecureCookies))
	h.Routes(r)

	go cleanupSessions(ctx, db, v.GetDuration("session-cleanup"))

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"db_driver", v.GetString("db-driver"),
		"advisor", advisor != nil,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func cleanupSessions(ctx context.Context, db *store.Store, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := db.CleanupExpiredSessions(ctx)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired sessions", "count", n)
			}
		}
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := cmd.Context()

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	path := v.GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := bank.Import(ctx, db, path, data)
	if errors.Is(err, bank.ErrUnchanged) {
		slog.Info("question bank unchanged, skipping", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d courses, %d exams, %d questions, %d choices\n",
		res.Courses, res.Exams, res.Questions, res.Choices)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := cmd.Context()

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := db.ExportExam(ctx, v.GetInt64("exam-id"))
	if err != nil {
		return fmt.Errorf("export exam: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := cmd.Context()

	role, err := model.ParseRole(v.GetString("role"))
	if err != nil {
		return err
	}
	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := createPerson(ctx, db, model.Person{
		FirstName: v.GetString("first-name"),
		LastName:  v.GetString("last-name"),
		Email:     v.GetString("email"),
		Role:      role,
	}, v.GetString("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", role, v.GetString("email"), id)
	return nil
}

func createPerson(ctx context.Context, db *store.Store, p model.Person, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	p.PasswordHash = string(hash)
	id, _, err := db.CreatePerson(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", p.Email, err)
	}
	return id, nil
}

// seedManager creates the first manager account when no manager exists yet.
func seedManager(ctx context.Context, db *store.Store, email, password string) error {
	count, err := db.PersonCount(ctx, model.RoleManager)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		slog.Warn("no manager account: set --manager-email and --manager-password (or EXAMSYS_MANAGER_EMAIL, EXAMSYS_MANAGER_PASSWORD)")
		return nil
	}
	if _, err := createPerson(ctx, db, model.Person{FirstName: "Manager", Email: email, Role: model.RoleManager}, password); err != nil {
		return err
	}
	slog.Info("seeded manager account", "email", email)
	return nil
}
