package tracksdk

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultSendTimeout = 3 * time.Second

// ClientConfig configures the tracking client.
type ClientConfig struct {
	// BaseURL is the collector's origin, e.g. "https://stats.example.com".
	BaseURL string
	// Timeout bounds each send. Defaults to 3 seconds.
	Timeout time.Duration
	// Storage holds visitor and session identity. Defaults to in-memory.
	Storage Storage
	// Logger receives delivery failures at debug level. Optional.
	Logger *slog.Logger
}

// Client ships page views, engagement flushes and consultation events to
// the collector. All sends are fire-and-forget: they run on their own
// goroutine, and failures are logged, never surfaced. Losing a data
// point is always preferable to slowing down the instrumented page.
type Client struct {
	baseURL    string
	timeout    time.Duration
	storage    Storage
	logger     *slog.Logger
	httpClient *fasthttp.Client
}

// NewClient creates a tracking client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	storage := cfg.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
		storage: storage,
		logger:  logger,
		httpClient: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
	}
}

// PageView describes one page load to report.
type PageView struct {
	Path             string `json:"path"`
	Title            string `json:"title"`
	Referrer         string `json:"referrer"`
	Query            string `json:"query"`
	ScreenResolution string `json:"screenResolution"`
	Language         string `json:"language"`
}

// Event describes one consultation intent action to report.
type Event struct {
	EventType string                 `json:"eventType"`
	Label     string                 `json:"label"`
	Path      string                 `json:"path"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// TrackPageView reports a page load and returns a fresh engagement
// tracker for it. When identity storage is unavailable the page view
// is skipped entirely and nil is returned; Flush treats a nil tracker
// as a no-op, so callers do not need to branch.
func (c *Client) TrackPageView(view PageView) *EngagementTracker {
	visitorID, sessionID, err := c.identity()
	if err != nil {
		return nil
	}

	payload := map[string]any{
		"visitorId":        visitorID,
		"sessionId":        sessionID,
		"path":             view.Path,
		"title":            view.Title,
		"referrer":         view.Referrer,
		"query":            view.Query,
		"screenResolution": view.ScreenResolution,
		"language":         view.Language,
		"timestamp":        time.Now().UTC(),
	}

	c.send("/x/api/v1/page-views", payload)
	return NewEngagementTracker()
}

// Flush ships the final engagement state of a page view. Like the
// browser beacon it imitates, it reports nothing back.
func (c *Client) Flush(path string, tracker *EngagementTracker) {
	if tracker == nil {
		return
	}
	sessionID, err := GetOrCreateSessionID(c.storage)
	if err != nil {
		return
	}
	snapshot := tracker.Snapshot()

	payload := map[string]any{
		"sessionId":   sessionID,
		"path":        path,
		"scrollDepth": snapshot.ScrollDepth,
		"timeOnPage":  snapshot.TimeOnPage,
		"clickCount":  snapshot.ClickCount,
	}

	c.send("/x/api/v1/flush", payload)
}

// TrackEvent reports a consultation intent event.
func (c *Client) TrackEvent(event Event) {
	visitorID, sessionID, err := c.identity()
	if err != nil {
		return
	}

	payload := map[string]any{
		"visitorId": visitorID,
		"sessionId": sessionID,
		"eventType": event.EventType,
		"label":     event.Label,
		"path":      event.Path,
		"metadata":  event.Metadata,
		"timestamp": time.Now().UTC(),
	}

	c.send("/x/api/v1/events", payload)
}

func (c *Client) identity() (visitorID, sessionID string, err error) {
	visitorID, err = GetOrCreateVisitorID(c.storage)
	if err != nil {
		c.logger.Debug("tracksdk: identity storage unavailable, skipping")
		return "", "", err
	}
	sessionID, err = GetOrCreateSessionID(c.storage)
	if err != nil {
		c.logger.Debug("tracksdk: identity storage unavailable, skipping")
		return "", "", err
	}
	return visitorID, sessionID, nil
}

func (c *Client) send(path string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Debug("tracksdk: failed to encode payload", slog.Any("error", err))
		return
	}

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.baseURL + path)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(body)

		if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Debug("tracksdk: delivery failed",
				slog.String("path", path),
				slog.Any("error", err))
		}
	}()
}
