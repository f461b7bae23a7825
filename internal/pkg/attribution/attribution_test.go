package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyChannels(t *testing.T) {
	classifier := NewClassifier("www.smithlaw.com")

	tests := []struct {
		name     string
		referrer string
		want     Channel
	}{
		{name: "empty referrer is direct", referrer: "", want: ChannelDirect},
		{name: "google is search", referrer: "https://www.google.com/search?q=dui+lawyer", want: ChannelSearch},
		{name: "bing is search", referrer: "https://www.bing.com/search?q=attorney", want: ChannelSearch},
		{name: "facebook is social", referrer: "https://www.facebook.com/somepage", want: ChannelSocial},
		{name: "facebook subdomain is social", referrer: "https://l.facebook.com/l.php?u=x", want: ChannelSocial},
		{name: "youtube is video not social", referrer: "https://www.youtube.com/watch?v=abc", want: ChannelVideo},
		{name: "avvo is partner", referrer: "https://www.avvo.com/attorneys/123", want: ChannelPartner},
		{name: "own host is internal", referrer: "https://smithlaw.com/practice-areas", want: ChannelInternal},
		{name: "own host with www is internal", referrer: "https://www.smithlaw.com/about", want: ChannelInternal},
		{name: "unknown host is other", referrer: "https://example.org/blog", want: ChannelOther},
		{name: "unparseable referrer is other", referrer: "://not a url", want: ChannelOther},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			attr := classifier.Classify(tc.referrer, "")
			assert.Equal(t, tc.want, attr.ChannelType)
		})
	}
}

func TestClassifyExtractsSearchKeyword(t *testing.T) {
	classifier := NewClassifier("smithlaw.com")

	attr := classifier.Classify("https://www.google.com/search?q=personal+injury+lawyer", "")
	assert.Equal(t, ChannelSearch, attr.ChannelType)
	assert.Equal(t, "personal injury lawyer", attr.SearchKeyword)

	// Keyword missing from the referrer is fine
	attr = classifier.Classify("https://duckduckgo.com/", "")
	assert.Equal(t, ChannelSearch, attr.ChannelType)
	assert.Empty(t, attr.SearchKeyword)

	// Non-search channels never carry a keyword
	attr = classifier.Classify("https://www.facebook.com/?q=whatever", "")
	assert.Empty(t, attr.SearchKeyword)
}

func TestClassifyReadsUTMFromCurrentQuery(t *testing.T) {
	classifier := NewClassifier("smithlaw.com")

	attr := classifier.Classify("", "?utm_source=google&utm_medium=cpc&utm_campaign=spring-dui&utm_term=dui&utm_content=ad-a")
	assert.Equal(t, ChannelDirect, attr.ChannelType)
	assert.Equal(t, "google", attr.UTMSource)
	assert.Equal(t, "cpc", attr.UTMMedium)
	assert.Equal(t, "spring-dui", attr.UTMCampaign)
	assert.Equal(t, "dui", attr.UTMTerm)
	assert.Equal(t, "ad-a", attr.UTMContent)

	// UTM is independent of the referrer channel
	attr = classifier.Classify("https://www.google.com/search?q=x", "utm_source=newsletter")
	assert.Equal(t, ChannelSearch, attr.ChannelType)
	assert.Equal(t, "newsletter", attr.UTMSource)
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := NewClassifier("smithlaw.com")

	first := classifier.Classify("https://www.google.com/search?q=dui", "utm_source=g")
	second := classifier.Classify("https://www.google.com/search?q=dui", "utm_source=g")
	assert.Equal(t, first, second)
}
