package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lexinsights/internal"
	"lexinsights/internal/config"
	"lexinsights/internal/tracking"
)

// testDBCache caches test databases by test name so multiple calls
// within the same test share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with lexinsights' interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all lexinsights models for migration
func allModels() []any {
	return []any{
		&tracking.Session{},
		&tracking.PageView{},
		&tracking.ConsultationEvent{},
	}
}

// SetupTestDB creates a test database with all models migrated. Uses a
// named in-memory database with cache=shared so multiple connections
// within a test see the same data. Caches the database by root test name
// so subtests and setup closures get the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set LEXINSIGHTS_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestApp creates a test Fiber app with all routes mounted
func CreateTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Enable SecFetchSite validation in tests to match production behavior
	// This blocks requests without Sec-Fetch-Site header (server-to-server requests)
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// CreateTestSession inserts a session row with sensible defaults,
// overridable via the mutate callback.
func CreateTestSession(t *testing.T, db *gorm.DB, visitorID, sessionID string, startedAt time.Time, mutate func(*tracking.Session)) tracking.Session {
	t.Helper()

	session := tracking.Session{
		SessionID:    sessionID,
		VisitorID:    visitorID,
		StartedAt:    startedAt,
		LandingPage:  "/",
		ReferrerType: "direct",
		DeviceType:   "desktop",
		Browser:      "Chrome",
		OS:           "Windows",
		IsNewVisitor: true,
		PageCount:    1,
		CreatedAt:    startedAt,
		UpdatedAt:    startedAt,
	}
	if mutate != nil {
		mutate(&session)
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("testsupport: failed to create session: %v", err)
	}
	return session
}

// CreateTestPageView inserts a page view row with sensible defaults.
func CreateTestPageView(t *testing.T, db *gorm.DB, visitorID, sessionID, pagePath string, createdAt time.Time, mutate func(*tracking.PageView)) tracking.PageView {
	t.Helper()

	pageView := tracking.PageView{
		VisitorID:    visitorID,
		SessionID:    sessionID,
		PagePath:     pagePath,
		ReferrerType: "direct",
		DeviceType:   "desktop",
		Browser:      "Chrome",
		OS:           "Windows",
		CreatedAt:    createdAt,
	}
	if mutate != nil {
		mutate(&pageView)
	}
	if err := db.Create(&pageView).Error; err != nil {
		t.Fatalf("testsupport: failed to create page view: %v", err)
	}
	return pageView
}

// CreateTestEvent inserts a consultation event row.
func CreateTestEvent(t *testing.T, db *gorm.DB, visitorID, sessionID, eventType, pagePath string, createdAt time.Time) tracking.ConsultationEvent {
	t.Helper()

	event := tracking.ConsultationEvent{
		VisitorID:    visitorID,
		SessionID:    sessionID,
		EventType:    eventType,
		PagePath:     pagePath,
		ReferrerType: "direct",
		DeviceType:   "desktop",
		CreatedAt:    createdAt,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("testsupport: failed to create consultation event: %v", err)
	}
	return event
}
