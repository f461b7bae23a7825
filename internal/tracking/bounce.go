package tracking

// Bounce thresholds. A page view with at most one click that lasts under
// ten seconds counts as a bounce. A single click that immediately exits
// still bounces; the definition is kept as-is because changing it would
// shift every historical bounce-rate number.
const (
	bounceMaxClicks     = 1
	bounceMaxSeconds    = 10
	maxScrollDepthValue = 100
)

// IsBounce applies the bounce rule to a page view's final engagement
// metrics. Both the collector and the instrumentation SDK use this single
// definition.
func IsBounce(clickCount, elapsedSeconds int) bool {
	return clickCount <= bounceMaxClicks && elapsedSeconds < bounceMaxSeconds
}

// ClampScrollDepth bounds a reported scroll percentage to [0, 100].
func ClampScrollDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > maxScrollDepthValue {
		return maxScrollDepthValue
	}
	return depth
}
