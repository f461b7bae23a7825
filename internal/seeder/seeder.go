// Package seeder generates demo traffic for local development. It
// drives the real ingest pipeline instead of inserting rows directly,
// so seeded data goes through the same attribution, fingerprinting and
// session rollup as production traffic.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"

	"lexinsights/internal/tracking"
)

// Seeder handles the demo data seeding process.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	SessionCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessionCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		SessionCount: sessionCount,
	}
}

// journeyTemplates are typical paths through a law firm marketing site.
var journeyTemplates = [][]string{
	{"/", "/practice-areas/personal-injury", "/contact"},
	{"/", "/practice-areas/dui", "/attorneys", "/contact"},
	{"/practice-areas/family-law", "/attorneys/jane-doe", "/contact"},
	{"/", "/about", "/attorneys"},
	{"/blog/what-to-do-after-a-car-accident", "/practice-areas/personal-injury"},
	{"/", "/practice-areas/estate-planning", "/faq", "/contact"},
	{"/practice-areas/dui"},
	{"/", "/testimonials", "/contact"},
}

var referrerPool = []string{
	"",
	"",
	"https://www.google.com/search?q=personal+injury+lawyer",
	"https://www.google.com/search?q=dui+attorney+near+me",
	"https://www.bing.com/search?q=family+law+attorney",
	"https://www.avvo.com/attorneys/12345",
	"https://www.justia.com/lawyers",
	"https://www.facebook.com/",
	"https://www.linkedin.com/feed/",
	"https://www.youtube.com/watch?v=abc123",
}

var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; SM-S921B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0",
}

var eventTypes = []string{"phone_click", "contact_form_submit", "chat_open", "directions_click"}

// Run generates demo sessions spread over the last 30 days.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo traffic...", slog.Int("sessions", s.SessionCount))

	for i := 0; i < s.SessionCount; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.seedSession(); err != nil {
			return fmt.Errorf("failed to seed session %d: %w", i, err)
		}
	}

	s.Logger.Info("Seeding completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedSession() error {
	visitorID := uuid.NewString()
	sessionID := uuid.NewString()
	journey := journeyTemplates[rand.IntN(len(journeyTemplates))]
	referrer := referrerPool[rand.IntN(len(referrerPool))]
	userAgent := userAgentPool[rand.IntN(len(userAgentPool))]
	ip := fmt.Sprintf("%d.%d.%d.%d", rand.IntN(223)+1, rand.IntN(256), rand.IntN(256), rand.IntN(256))

	baseTime := time.Now().UTC().Add(-time.Duration(rand.IntN(30*24*60*60)) * time.Second)

	for step, path := range journey {
		pageReferrer := referrer
		if step > 0 {
			pageReferrer = ""
		}

		viewTime := baseTime.Add(time.Duration(step) * time.Duration(rand.IntN(110)+10) * time.Second)
		input := &tracking.PageViewInput{
			VisitorID:        visitorID,
			SessionID:        sessionID,
			PagePath:         path,
			PageTitle:        pageTitleFor(path),
			Referrer:         pageReferrer,
			UserAgent:        userAgent,
			IPAddress:        ip,
			ScreenResolution: "1920x1080",
			Language:         "en-US",
			Timestamp:        viewTime,
		}
		if err := tracking.RecordPageView(s.DBManager, s.Logger, input); err != nil {
			return err
		}

		engagement := &tracking.EngagementInput{
			ScrollDepth: rand.IntN(101),
			TimeOnPage:  rand.IntN(170) + 10,
			ClickCount:  rand.IntN(6),
		}
		if err := tracking.FlushPageView(s.DBManager, s.Logger, sessionID, path, engagement); err != nil {
			return err
		}
	}

	// Roughly a fifth of sessions show consultation intent
	if rand.Float64() < 0.2 {
		event := &tracking.EventInput{
			VisitorID: visitorID,
			SessionID: sessionID,
			EventType: eventTypes[rand.IntN(len(eventTypes))],
			PagePath:  journey[len(journey)-1],
			UserAgent: userAgent,
			Timestamp: baseTime.Add(time.Duration(len(journey)) * time.Minute),
		}
		if err := tracking.RecordEvent(s.DBManager, s.Logger, event); err != nil {
			return err
		}
	}

	return nil
}

func pageTitleFor(path string) string {
	switch path {
	case "/":
		return "Home"
	case "/contact":
		return "Contact Us"
	case "/attorneys":
		return "Our Attorneys"
	case "/about":
		return "About the Firm"
	default:
		return path
	}
}
