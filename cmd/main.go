package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"calbot/internal/bot"
	"calbot/internal/config"
	"calbot/internal/form"
	"calbot/internal/models"
	"calbot/internal/store"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calbot",
		Usage: "Turn calendar-event issues into a local iCalendar dataset.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "Override the data directory."},
		},
		Commands: []*cli.Command{
			validateCommand(),
			processCommand(),
			deleteCommand(),
			listCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// env bundles what every command needs: configuration, a logger and the
// timezone submissions are interpreted in.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: setupLogger(cfg.LogLevel), loc: loc}, nil
}

func (e *env) store() *store.Store {
	return store.New(e.logger, e.cfg.DataDir, e.cfg.CalendarFile, e.loc)
}

func (e *env) bot() *bot.Bot {
	return bot.New(e.logger, e.store(), e.loc)
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check an issue body against the template schema without storing it.",
		Flags: bodyFlags(),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			body, err := readBody(c)
			if err != nil {
				return err
			}

			event, err := form.Parse(body, e.loc)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			fmt.Printf("OK: %s (%s)\n", event.Name, formatRange(*event))
			return nil
		},
	}
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Create or update the calendar event for a discussion.",
		Flags: append(bodyFlags(),
			&cli.StringFlag{Name: "discussion", Required: true, Usage: "Discussion number the issue body came from."},
		),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			body, err := readBody(c)
			if err != nil {
				return err
			}

			event, updated, err := e.bot().Process(c.String("discussion"), body)
			if err != nil {
				return err
			}

			if updated {
				fmt.Printf("Stored: %s (%s)\n", event.Name, formatRange(*event))
			} else {
				fmt.Println("No changes detected; nothing written.")
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Remove the calendar event of a discussion.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "discussion", Required: true, Usage: "Discussion number whose event should go."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			removed, err := e.bot().Delete(c.String("discussion"))
			if err != nil {
				return err
			}

			if removed {
				fmt.Println("Event removed.")
			} else {
				fmt.Println("Event not found.")
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the events currently in the public calendar.",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			events, err := e.store().Load()
			if err != nil {
				return err
			}

			for _, event := range events {
				fmt.Printf("%s\t%s\t%s\t%s\n", event.UID, event.Name, formatRange(event), event.Location)
			}
			return nil
		},
	}
}

func bodyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "body", Usage: "Issue body text."},
		&cli.StringFlag{Name: "body-file", Usage: "Read the issue body from a file ('-' for stdin)."},
	}
}

// readBody returns the issue body from --body, --body-file or stdin.
func readBody(c *cli.Context) (string, error) {
	if body := c.String("body"); body != "" {
		return body, nil
	}

	file := c.String("body-file")
	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}

func formatRange(event models.EventSubmission) string {
	if event.AllDay {
		return fmt.Sprintf("%s to %s, all day", event.Start.Format("2006-01-02"), event.End.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s to %s", event.Start.Format("2006-01-02 15:04:05"), event.End.Format("2006-01-02 15:04:05"))
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
