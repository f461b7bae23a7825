package tracking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"lexinsights/internal/config"
	"lexinsights/internal/pkg/attribution"
	"lexinsights/internal/pkg/useragent"
)

// PageViewInput defines the input required to record a page view.
type PageViewInput struct {
	VisitorID        string
	SessionID        string
	PagePath         string
	PageTitle        string
	Referrer         string
	QueryString      string
	UserAgent        string
	IPAddress        string
	ScreenResolution string
	Language         string
	Timestamp        time.Time
}

// EngagementInput carries the final engagement metrics delivered by a
// flush call.
type EngagementInput struct {
	ScrollDepth int
	TimeOnPage  int
	ClickCount  int
}

// EventInput defines the input required to record a consultation event.
type EventInput struct {
	VisitorID  string
	SessionID  string
	EventType  string
	EventLabel string
	PagePath   string
	UserAgent  string
	Metadata   map[string]interface{}
	Timestamp  time.Time
}

// RecordPageView persists one page view. The owning session row is
// upserted: the first page view of a session creates it with this view's
// landing page and attribution; later calls only increment page_count
// (atomically, in SQL). Bot traffic is a hard no-op. Each call inserts a
// new PageView row, so callers must invoke it exactly once per genuine
// page view.
func RecordPageView(dbManager cartridge.DBManager, logger *slog.Logger, input *PageViewInput) error {
	if useragent.IsBot(input.UserAgent) {
		logger.Debug("Skipping page view from bot", slog.String("user_agent", input.UserAgent))
		return nil
	}

	if input.VisitorID == "" || input.SessionID == "" {
		return fmt.Errorf("page view requires visitor_id and session_id")
	}

	pagePath := input.PagePath
	if pagePath == "" {
		pagePath = "/"
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	classifier := attribution.NewClassifier(config.GetConfig().SiteHost)
	attr := classifier.Classify(input.Referrer, input.QueryString)
	device := useragent.Fingerprint(input.UserAgent)
	country := countryFromIP(input.IPAddress)

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := upsertSession(tx, input, pagePath, attr, device, country, timestamp); err != nil {
			return err
		}

		pageView := &PageView{
			VisitorID:        input.VisitorID,
			SessionID:        input.SessionID,
			PagePath:         pagePath,
			PageTitle:        input.PageTitle,
			Referrer:         input.Referrer,
			ReferrerType:     string(attr.ChannelType),
			SearchKeyword:    attr.SearchKeyword,
			UTMSource:        attr.UTMSource,
			UTMMedium:        attr.UTMMedium,
			UTMCampaign:      attr.UTMCampaign,
			UTMTerm:          attr.UTMTerm,
			UTMContent:       attr.UTMContent,
			DeviceType:       device.Type,
			DeviceBrand:      device.Brand,
			Browser:          device.Browser,
			OS:               device.OS,
			ScreenResolution: input.ScreenResolution,
			Language:         input.Language,
			Country:          country,
			CreatedAt:        timestamp,
			UpdatedAt:        timestamp,
		}
		return tx.Create(pageView).Error
	})
	if err != nil {
		logger.Error("Failed to record page view",
			slog.String("session_id", input.SessionID),
			slog.String("page_path", pagePath),
			slog.Any("error", err))
		return fmt.Errorf("failed to record page view: %w", err)
	}

	return nil
}

// upsertSession creates the session on its first page view or increments
// page_count on every later one. The increment happens inside the upsert
// statement so concurrent page views from the same session converge
// instead of losing updates or duplicating rows.
func upsertSession(tx *gorm.DB, input *PageViewInput, pagePath string, attr attribution.Attribution, device useragent.Device, country string, timestamp time.Time) error {
	isNewVisitor, err := isFirstSessionForVisitor(tx, input.VisitorID, input.SessionID)
	if err != nil {
		return err
	}

	return tx.Exec(`
        INSERT INTO sessions (
            session_id, visitor_id, started_at, landing_page, exit_page,
            referrer_type, search_keyword,
            utm_source, utm_medium, utm_campaign, utm_term, utm_content,
            device_type, device_brand, browser, os, country,
            is_new_visitor, page_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
        ON CONFLICT(session_id) DO UPDATE SET
            page_count = page_count + 1,
            updated_at = excluded.updated_at`,
		input.SessionID, input.VisitorID, timestamp, pagePath,
		string(attr.ChannelType), attr.SearchKeyword,
		attr.UTMSource, attr.UTMMedium, attr.UTMCampaign, attr.UTMTerm, attr.UTMContent,
		device.Type, device.Brand, device.Browser, device.OS, country,
		isNewVisitor, timestamp, timestamp,
	).Error
}

// isFirstSessionForVisitor checks whether any other session exists for
// this visitor. The answer is computed once, before the session row is
// created, and never recomputed afterwards.
func isFirstSessionForVisitor(tx *gorm.DB, visitorID, sessionID string) (bool, error) {
	var count int64
	err := tx.Model(&Session{}).
		Where("visitor_id = ? AND session_id != ?", visitorID, sessionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check prior sessions: %w", err)
	}
	return count == 0, nil
}

// FlushPageView applies the final engagement metrics to the most recent
// page view matching (session_id, page_path) and closes out the session
// row. Delivery is best-effort: the call is triggered by a page-unload
// signal and may never arrive, in which case the rows simply keep their
// pre-flush state. A missing page view is therefore not an error.
func FlushPageView(dbManager cartridge.DBManager, logger *slog.Logger, sessionID, pagePath string, engagement *EngagementInput) error {
	if sessionID == "" {
		return fmt.Errorf("flush requires session_id")
	}
	if pagePath == "" {
		pagePath = "/"
	}

	scrollDepth := ClampScrollDepth(engagement.ScrollDepth)
	timeOnPage := engagement.TimeOnPage
	if timeOnPage < 0 {
		timeOnPage = 0
	}
	bounced := IsBounce(engagement.ClickCount, timeOnPage)
	now := time.Now().UTC()

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		var pageView PageView
		findErr := tx.Where("session_id = ? AND page_path = ?", sessionID, pagePath).
			Order("created_at DESC, id DESC").
			First(&pageView).Error
		if findErr == nil {
			updateErr := tx.Model(&PageView{}).Where("id = ?", pageView.ID).Updates(map[string]interface{}{
				"scroll_depth": scrollDepth,
				"time_on_page": timeOnPage,
				"click_count":  engagement.ClickCount,
				"is_bounce":    bounced,
				"updated_at":   now,
			}).Error
			if updateErr != nil {
				return updateErr
			}
		} else if findErr != gorm.ErrRecordNotFound {
			return findErr
		}

		return tx.Model(&Session{}).Where("session_id = ?", sessionID).Updates(map[string]interface{}{
			"ended_at":   now,
			"exit_page":  pagePath,
			"is_bounce":  bounced,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		logger.Error("Failed to flush page view",
			slog.String("session_id", sessionID),
			slog.String("page_path", pagePath),
			slog.Any("error", err))
		return fmt.Errorf("failed to flush page view: %w", err)
	}

	return nil
}

// RecordEvent appends one consultation event. Referrer and device
// dimensions are denormalized from the owning session when it exists, so
// conversion reports can group without joins.
func RecordEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *EventInput) error {
	if useragent.IsBot(input.UserAgent) {
		logger.Debug("Skipping event from bot", slog.String("user_agent", input.UserAgent))
		return nil
	}

	if input.VisitorID == "" || input.SessionID == "" || input.EventType == "" {
		return fmt.Errorf("event requires visitor_id, session_id and event_type")
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		event := &ConsultationEvent{
			VisitorID:  input.VisitorID,
			SessionID:  input.SessionID,
			EventType:  input.EventType,
			EventLabel: input.EventLabel,
			PagePath:   input.PagePath,
			Metadata:   metadataToJSON(input.Metadata),
			CreatedAt:  timestamp,
		}

		var session Session
		if tx.Where("session_id = ?", input.SessionID).First(&session).Error == nil {
			event.ReferrerType = session.ReferrerType
			event.DeviceType = session.DeviceType
		}

		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to record event",
			slog.String("event_type", input.EventType),
			slog.Any("error", err))
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// GetSessionByID fetches a single session row.
func GetSessionByID(db *gorm.DB, sessionID string) (*Session, error) {
	var session Session
	if err := db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func metadataToJSON(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(data)
}
