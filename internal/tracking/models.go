// Package tracking is the ingestion side of the analytics core: it owns
// the session, page-view and consultation-event rows and the collector
// operations that write them.
package tracking

import "time"

// Session represents one browsing episode. Exactly one row exists per
// SessionID; page_count only grows, and IsNewVisitor is fixed at creation.
// EndedAt, ExitPage and IsBounce stay unset until the session's last page
// view flushes - and stay that way forever if the flush is lost.
type Session struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	SessionID     string     `gorm:"uniqueIndex;size:64;not null"`
	VisitorID     string     `gorm:"index;size:64;not null"`
	StartedAt     time.Time  `gorm:"index;not null"`
	EndedAt       *time.Time `gorm:"index"`
	LandingPage   string     `gorm:"not null"`
	ExitPage      string
	ReferrerType  string `gorm:"index"`
	SearchKeyword string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMTerm       string
	UTMContent    string
	DeviceType    string `gorm:"index"`
	DeviceBrand   string
	Browser       string
	OS            string
	Country       string
	IsNewVisitor  bool  `gorm:"not null;default:false"`
	PageCount     int   `gorm:"not null;default:1"`
	IsBounce      *bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PageView represents one page impression within a session. Engagement
// fields start unset and are written in place exactly once, at flush time,
// targeting the most recent row matching (session_id, page_path).
type PageView struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	VisitorID        string `gorm:"index;size:64;not null"`
	SessionID        string `gorm:"index:idx_pv_session_path;size:64;not null"`
	PagePath         string `gorm:"index:idx_pv_session_path;not null"`
	PageTitle        string
	Referrer         string
	ReferrerType     string `gorm:"index"`
	SearchKeyword    string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	UTMTerm          string
	UTMContent       string
	DeviceType       string
	DeviceBrand      string
	Browser          string
	OS               string
	ScreenResolution string
	Language         string
	Country          string
	ScrollDepth      *int // 0-100, set at flush
	TimeOnPage       *int // seconds, set at flush
	ClickCount       int  `gorm:"not null;default:0"`
	IsBounce         *bool
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

// ConsultationEvent is a discrete conversion/funnel action such as
// "form_opened" or "call_button_clicked". Rows are append-only.
type ConsultationEvent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	VisitorID    string `gorm:"index;size:64;not null"`
	SessionID    string `gorm:"index;size:64;not null"`
	EventType    string `gorm:"index;not null"`
	EventLabel   string
	PagePath     string `gorm:"index"`
	ReferrerType string
	DeviceType   string
	Metadata     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index"`
}
