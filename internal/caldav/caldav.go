package caldav

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "g2ical/1.0")
	return t.Transport.RoundTrip(req)
}

// Client publishes iCalendar documents to a CalDAV collection.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarURL  string
}

// NewClient discovers the named calendar on the given CalDAV endpoint and
// returns a client bound to it.
func NewClient(logger *slog.Logger, endpoint, username, password, calendarName string) (*Client, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarURL, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarURL = calendarURL
	logger.Info("Successfully found CalDAV calendar", "url", calendarURL)

	return c, nil
}

// Publish uploads a serialized VCALENDAR document as <name>.ics inside the
// bound collection. The document is decoded first so a malformed payload
// never reaches the server.
func (c *Client) Publish(ctx context.Context, name, icsText string) error {
	if _, err := ical.NewDecoder(strings.NewReader(icsText)).Decode(); err != nil {
		return fmt.Errorf("calendar document failed parse-back check: %w", err)
	}

	// The object path must be relative to the endpoint for the webdav client.
	objectPath := path.Join(strings.TrimPrefix(c.calendarURL, c.endpoint), name+".ics")

	c.logger.Debug("Publishing calendar object", "path", objectPath)
	writer, err := c.webdavClient.Create(ctx, objectPath)
	if err != nil {
		return fmt.Errorf("failed to create calendar object on CalDAV server: %w", err)
	}
	defer writer.Close()

	if _, err := io.WriteString(writer, icsText); err != nil {
		return fmt.Errorf("failed to upload calendar object: %w", err)
	}

	c.logger.Info("Successfully published calendar", "path", objectPath)
	return nil
}

// findCalendar discovers the user's calendars and returns the URL for the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return strings.TrimSuffix(c.endpoint, "/") + cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
