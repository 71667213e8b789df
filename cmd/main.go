package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"g2ical/internal/caldav"
	"g2ical/internal/google"
	"g2ical/internal/ical"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "g2ical",
		Usage: "Export Google Calendar events to an RFC 5545 iCalendar file.",
		Commands: []*cli.Command{
			authCommand(),
			calendarsCommand(),
			exportCommand(),
			pushCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List the calendars of an authenticated account.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Name of the authenticated account to use."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(envLogLevel())

			client, err := newGoogleClient(c, logger)
			if err != nil {
				return err
			}

			calendars, err := client.ListCalendars()
			if err != nil {
				return fmt.Errorf("failed to list calendars: %w", err)
			}

			for i, cal := range calendars {
				marker := ""
				if cal.Primary {
					marker = " (primary)"
				}
				fmt.Printf("[%d] %s%s\n    %s\n", i, cal.Summary, marker, cal.ID)
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Fetch events in a date range and write them to an .ics file.",
		Flags: append(fetchFlags(),
			&cli.StringFlag{Name: "output", Value: "calendar.ics", Usage: "Output filename; the .ics extension is added if missing."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(envLogLevel())

			fileName, err := normalizeFileName(c.String("output"))
			if err != nil {
				return err
			}

			cal, err := fetchCalendar(c, logger)
			if err != nil {
				return err
			}

			if err := cal.WriteTo(fileName); err != nil {
				return err
			}

			logger.Info("Exported calendar.", "file", fileName, "events", cal.Len())
			return nil
		},
	}
}

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Fetch events in a date range and publish them to a CalDAV calendar.",
		Flags: append(fetchFlags(),
			&cli.StringFlag{Name: "name", Value: "g2ical-export", Usage: "Object name on the CalDAV server."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(envLogLevel())

			cal, err := fetchCalendar(c, logger)
			if err != nil {
				return err
			}

			text, err := cal.ICalText()
			if err != nil {
				return err
			}

			endpoint := os.Getenv("CALDAV_ENDPOINT")
			if endpoint == "" {
				return fmt.Errorf("CALDAV_ENDPOINT environment variable not set")
			}

			dav, err := caldav.NewClient(logger, endpoint,
				os.Getenv("CALDAV_USERNAME"), os.Getenv("CALDAV_PASSWORD"),
				os.Getenv("CALDAV_CALENDAR_NAME"))
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			if err := dav.Publish(c.Context, c.String("name"), text); err != nil {
				return fmt.Errorf("failed to publish calendar: %w", err)
			}

			logger.Info("Published calendar.", "events", cal.Len())
			return nil
		},
	}
}

func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Required: true, Usage: "Start date (YYYY-MM-DD, inclusive)."},
		&cli.StringFlag{Name: "end", Required: true, Usage: "End date (YYYY-MM-DD, inclusive)."},
		&cli.StringFlag{Name: "calendar", Value: "primary", Usage: "Google calendar ID to export."},
		&cli.StringFlag{Name: "account", Usage: "Name of the authenticated account to use."},
		&cli.StringFlag{Name: "timezone", Usage: "IANA timezone for event wall-clock times. Defaults to the system timezone."},
	}
}

// fetchCalendar is the shared fetch-and-adapt half of export and push.
func fetchCalendar(c *cli.Context, logger *slog.Logger) (*ical.Calendar, error) {
	from, to, err := parseDateRange(c.String("start"), c.String("end"))
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if tzStr := c.String("timezone"); tzStr != "" {
		loc, err = time.LoadLocation(tzStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
		}
	}

	client, err := newGoogleClient(c, logger)
	if err != nil {
		return nil, err
	}

	calendarID := c.String("calendar")
	items, err := client.EventsBetween(calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	logger.Info("Fetched events.", "calendarID", calendarID, "count", len(items))

	cal, err := ical.From(items, google.Adapter(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to convert events: %w", err)
	}
	return cal, nil
}

// newGoogleClient resolves the account name (flag, or the single saved
// token) and builds an authenticated client.
func newGoogleClient(c *cli.Context, logger *slog.Logger) (*google.CalendarClient, error) {
	account := c.String("account")
	if account == "" {
		accounts, err := google.TokenAccounts()
		if err != nil || len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		if len(accounts) > 1 {
			return nil, fmt.Errorf("multiple accounts found (%s); pass --account", strings.Join(accounts, ", "))
		}
		account = accounts[0]
	}

	client, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client for account %s: %w", account, err)
	}
	return client, nil
}

// parseDateRange validates both dates and returns [from, to) where to is
// the midnight after the inclusive end date.
func parseDateRange(startStr, endStr string) (from, to time.Time, err error) {
	from, err = parseDate(startStr, "start date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr, "end date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endStr, startStr)
	}
	return from, end.AddDate(0, 0, 1), nil
}

// parseDate parses a YYYY-MM-DD value and rejects dates more than ten
// years away from today in either direction.
func parseDate(value, field string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s cannot be empty", field)
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: '%s'. Use YYYY-MM-DD (e.g., 2025-07-29)", field, value)
	}
	now := time.Now()
	if t.Before(now.AddDate(-10, 0, 0)) {
		return time.Time{}, fmt.Errorf("%s %s is more than ten years in the past", field, value)
	}
	if t.After(now.AddDate(10, 0, 0)) {
		return time.Time{}, fmt.Errorf("%s %s is more than ten years in the future", field, value)
	}
	return t, nil
}

// normalizeFileName ensures a bare filename with the .ics extension.
func normalizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("output filename cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("output filename must not contain path separators: '%s'", name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".ics") {
		name += ".ics"
	}
	return name, nil
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

func envLogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}
