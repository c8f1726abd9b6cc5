// Outline CLI - asks the chat model for a course outline on free text and stores it
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/GriffinCanCode/screentutor/internal/config"
	"github.com/GriffinCanCode/screentutor/internal/course"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/provider/groq"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
	"github.com/GriffinCanCode/screentutor/internal/topic"
)

// Course outlines are long JSON documents, far larger than spoken answers.
const outlineMaxTokens = 2048

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	text := flag.StringP("text", "t", "", "text to build a course from")
	user := flag.StringP("user", "u", "", "user id owning the course (defaults to USER_ID)")
	list := flag.Bool("list", false, "list the user's courses instead of generating one")
	all := flag.Bool("all", false, "with --list, list every user's courses")
	show := flag.String("show", "", "print one course with all its data")
	mark := flag.String("bookmark", "", "bookmark a course for the user")
	renameID := flag.String("rename", "", "rename a course (use with --name)")
	name := flag.String("name", "", "new course name for --rename")
	dryRun := flag.Bool("dry-run", false, "print the outline without storing it")
	level := flag.String("log", "warn", "console log level")
	flag.Parse()

	slog.SetDefault(logging.NewConsole(os.Stderr, *level, true))
	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Warn("failed to load env file", "path", *envFile, "error", err)
	}
	cfg := config.Load()
	if *user == "" {
		*user = cfg.UserID
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := command{
		text: *text, user: *user, list: *list, all: *all, show: *show,
		bookmark: *mark, rename: *renameID, name: *name, dryRun: *dryRun,
	}
	if err := run(ctx, cfg, cmd); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// command is the parsed command line.
type command struct {
	text, user       string
	list, all        bool
	show             string
	bookmark, rename string
	name             string
	dryRun           bool
}

func (c command) generates() bool {
	return !c.list && c.show == "" && c.bookmark == "" && c.rename == ""
}

func run(ctx context.Context, cfg *config.Config, cmd command) error {
	if cmd.generates() && cmd.text == "" {
		return errors.New("--text is required")
	}
	if cmd.dryRun && !cmd.generates() {
		return errors.New("--dry-run only applies to generation")
	}

	var store *course.Store
	if !cmd.dryRun {
		var err error
		if store, err = course.Open(cfg.DatabasePath); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	switch {
	case cmd.list && cmd.all:
		courses, err := store.Courses(ctx)
		if err != nil {
			return err
		}
		return printJSON(courses)
	case cmd.list:
		courses, err := store.CoursesByUser(ctx, cmd.user)
		if err != nil {
			return err
		}
		return printJSON(courses)
	case cmd.show != "":
		c, err := store.CourseWithAllData(ctx, cmd.show)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("course %s not found", cmd.show)
		}
		return printJSON(c)
	case cmd.bookmark != "":
		b, err := bookmark(ctx, store, cmd.user, cmd.bookmark)
		if err != nil {
			return err
		}
		return printJSON(b)
	case cmd.rename != "":
		c, err := rename(ctx, store, cmd.rename, cmd.name)
		if err != nil {
			return err
		}
		return printJSON(c)
	}

	if cfg.GroqAPIKey == "" {
		slog.Warn("GROQ_API_KEY not set: the outline falls back to the default template")
	}
	model := retryingModel{
		model: groq.New(groq.Config{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			ChatModel:   cfg.ChatModel,
			Temperature: cfg.Temperature,
			MaxTokens:   outlineMaxTokens,
		}),
		cfg: resilience.LLMRetryConfig(),
	}

	gen := topic.NewGenerator(model)
	res := gen.Generate(ctx, cmd.text)
	outline, fromModel := gen.Outline(ctx, cmd.text, res)
	source := sourceTemplate
	if fromModel {
		source = sourceModel
	}
	slog.Info("outline ready", "subject", res.Subject, "topic", res.Topic, "days", len(outline.Days), "source", source)

	if store == nil {
		return printJSON(outline)
	}
	c, err := persist(ctx, store, cmd.user, cmd.text, outline, source)
	if err != nil {
		return err
	}
	return printJSON(c)
}

// retryingModel retries transient chat failures with backoff.
type retryingModel struct {
	model topic.Completer
	cfg   resilience.RetryConfig
}

func (r retryingModel) Complete(ctx context.Context, system, text, imageURL string) (string, error) {
	var out string
	err := resilience.Retry(ctx, r.cfg, func() error {
		var err error
		out, err = r.model.Complete(ctx, system, text, imageURL)
		return err
	})
	return out, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
