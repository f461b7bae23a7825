package tracksdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorIdentityIsStable(t *testing.T) {
	storage := NewMemoryStorage()

	first, err := GetOrCreateVisitorID(storage)
	require.NoError(t, err)
	second, err := GetOrCreateVisitorID(storage)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSessionIdentityRotatesAfterClear(t *testing.T) {
	storage := NewMemoryStorage()

	first, err := GetOrCreateSessionID(storage)
	require.NoError(t, err)
	storage.ClearSession()
	second, err := GetOrCreateSessionID(storage)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	// Visitor identity survives the session clear
	visitor, err := GetOrCreateVisitorID(storage)
	require.NoError(t, err)
	again, err := GetOrCreateVisitorID(storage)
	require.NoError(t, err)
	assert.Equal(t, visitor, again)
}

type brokenStorage struct{}

func (brokenStorage) Get(string) (string, error) { return "", ErrStorageUnavailable }
func (brokenStorage) Set(string, string) error   { return ErrStorageUnavailable }

func TestUnavailableStorageSkipsInstrumentation(t *testing.T) {
	_, err := GetOrCreateVisitorID(nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = GetOrCreateVisitorID(brokenStorage{})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	client := NewClient(ClientConfig{BaseURL: "http://localhost:1", Storage: brokenStorage{}})
	tracker := client.TrackPageView(PageView{Path: "/"})
	assert.Nil(t, tracker)

	// Flush on a skipped page view is a no-op
	client.Flush("/", tracker)
}

func TestScrollDepthIsMonotonic(t *testing.T) {
	tracker := NewEngagementTracker()

	tracker.RecordScroll(400, 2000, 1000) // 40%
	tracker.RecordScroll(800, 2000, 1000) // 80%
	tracker.RecordScroll(200, 2000, 1000) // back up to 20%

	snapshot := tracker.Snapshot()
	assert.Equal(t, 80, snapshot.ScrollDepth)
}

func TestShortPageCountsAsFullyRead(t *testing.T) {
	tracker := NewEngagementTracker()

	tracker.RecordScroll(0, 500, 1000)

	snapshot := tracker.Snapshot()
	assert.Equal(t, 100, snapshot.ScrollDepth)
}

func TestSnapshotBounceRule(t *testing.T) {
	tests := []struct {
		name       string
		clicks     int
		elapsed    time.Duration
		wantBounce bool
	}{
		{name: "no clicks quick exit", clicks: 0, elapsed: 3 * time.Second, wantBounce: true},
		{name: "one click quick exit", clicks: 1, elapsed: 3 * time.Second, wantBounce: true},
		{name: "two clicks quick exit", clicks: 2, elapsed: 3 * time.Second, wantBounce: false},
		{name: "no clicks long dwell", clicks: 0, elapsed: 30 * time.Second, wantBounce: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewEngagementTracker()
			tracker.startTime = time.Now().Add(-tc.elapsed)
			for i := 0; i < tc.clicks; i++ {
				tracker.RecordClick()
			}

			snapshot := tracker.Snapshot()
			assert.Equal(t, tc.wantBounce, snapshot.IsBounce)
			assert.Equal(t, tc.clicks, snapshot.ClickCount)
		})
	}
}
