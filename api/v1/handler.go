// Package v1 implements the public ingest API consumed by the site
// tracking snippet. All handlers prefer losing a data point over
// breaking a visitor's page load.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"lexinsights/internal/tracking"
)

const errInvalidRequest = "Invalid request"

// PageViewParams is the body of a page view ingest request.
type PageViewParams struct {
	VisitorID        string    `json:"visitorId"`
	SessionID        string    `json:"sessionId"`
	Path             string    `json:"path"`
	Title            string    `json:"title"`
	Referrer         string    `json:"referrer"`
	Query            string    `json:"query"`
	ScreenResolution string    `json:"screenResolution"`
	Language         string    `json:"language"`
	Timestamp        time.Time `json:"timestamp"`
}

// FlushParams is the body of an end-of-view engagement flush, sent via
// navigator.sendBeacon when the visitor leaves the page.
type FlushParams struct {
	SessionID   string `json:"sessionId"`
	Path        string `json:"path"`
	ScrollDepth int    `json:"scrollDepth"`
	TimeOnPage  int    `json:"timeOnPage"`
	ClickCount  int    `json:"clickCount"`
}

// EventParams is the body of a consultation event ingest request.
type EventParams struct {
	VisitorID string                 `json:"visitorId"`
	SessionID string                 `json:"sessionId"`
	EventType string                 `json:"eventType"`
	Label     string                 `json:"label"`
	Path      string                 `json:"path"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp time.Time              `json:"timestamp"`
}

// CreatePageViewHandler records a page view and its session rollup.
func CreatePageViewHandler(ctx *cartridge.Context) error {
	var params PageViewParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse page view request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}
	if params.VisitorID == "" || params.SessionID == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}

	input := &tracking.PageViewInput{
		VisitorID:        params.VisitorID,
		SessionID:        params.SessionID,
		PagePath:         params.Path,
		PageTitle:        params.Title,
		Referrer:         params.Referrer,
		QueryString:      params.Query,
		UserAgent:        requestUserAgent(ctx),
		IPAddress:        getClientIP(ctx.Ctx),
		ScreenResolution: params.ScreenResolution,
		Language:         params.Language,
		Timestamp:        params.Timestamp,
	}

	if err := tracking.RecordPageView(ctx.DBManager, ctx.Logger, input); err != nil {
		ctx.Logger.Error("Failed to record page view", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record page view",
		})
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{"status": http.StatusAccepted})
}

// CreateFlushBeaconHandler applies end-of-view engagement data. Beacon
// requests arrive as text/plain and get no retry from the browser, so
// this handler always answers 202 no matter what went wrong.
func CreateFlushBeaconHandler(ctx *cartridge.Context) error {
	var params FlushParams
	if err := json.Unmarshal(ctx.Body(), &params); err != nil {
		ctx.Logger.Debug("Failed to parse flush beacon", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}
	if params.SessionID == "" {
		return ctx.SendStatus(http.StatusAccepted)
	}

	engagement := &tracking.EngagementInput{
		ScrollDepth: params.ScrollDepth,
		TimeOnPage:  params.TimeOnPage,
		ClickCount:  params.ClickCount,
	}

	if err := tracking.FlushPageView(ctx.DBManager, ctx.Logger, params.SessionID, params.Path, engagement); err != nil {
		ctx.Logger.Error("Failed to flush page view",
			slog.Any("error", err),
			slog.String("sessionId", params.SessionID))
	}

	return ctx.SendStatus(http.StatusAccepted)
}

// CreateEventHandler records a consultation intent event.
func CreateEventHandler(ctx *cartridge.Context) error {
	var params EventParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse event request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}
	if params.VisitorID == "" || params.SessionID == "" || params.EventType == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}

	input := &tracking.EventInput{
		VisitorID:  params.VisitorID,
		SessionID:  params.SessionID,
		EventType:  params.EventType,
		EventLabel: params.Label,
		PagePath:   params.Path,
		UserAgent:  requestUserAgent(ctx),
		Metadata:   params.Metadata,
		Timestamp:  params.Timestamp,
	}

	if err := tracking.RecordEvent(ctx.DBManager, ctx.Logger, input); err != nil {
		ctx.Logger.Error("Failed to record event",
			slog.Any("error", err),
			slog.String("eventType", params.EventType))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record event",
		})
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{"status": http.StatusAccepted})
}

// requestUserAgent returns the visitor's user agent, honoring the
// override header set by server-side proxies.
func requestUserAgent(ctx *cartridge.Context) string {
	if forwarded := ctx.Get("X-Forwarded-User-Agent"); forwarded != "" {
		return forwarded
	}
	return ctx.Get("User-Agent")
}
