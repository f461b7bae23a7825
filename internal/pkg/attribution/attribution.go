// Package attribution classifies a page view's traffic source into the
// channel taxonomy used across the analytics dashboards. Classification is
// a pure function over the referrer URL and the landing page's own query
// string, driven by an ordered domain table embedded at build time.
package attribution

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Channel is a coarse traffic-source category.
type Channel string

const (
	ChannelDirect   Channel = "direct"
	ChannelSearch   Channel = "search"
	ChannelSocial   Channel = "social"
	ChannelVideo    Channel = "video"
	ChannelPartner  Channel = "partner"
	ChannelInternal Channel = "internal"
	ChannelOther    Channel = "other"
)

// Attribution is the result of classifying a single page view.
type Attribution struct {
	ChannelType   Channel
	SearchKeyword string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMTerm       string
	UTMContent    string
}

//go:embed channels.yml
var channelsYAML []byte

type channelRule struct {
	Domain  string `yaml:"domain"`
	Channel string `yaml:"channel"`
}

var (
	rules     []channelRule
	rulesOnce sync.Once
	rulesErr  error
)

func loadRules() ([]channelRule, error) {
	rulesOnce.Do(func() {
		rulesErr = yaml.Unmarshal(channelsYAML, &rules)
		if rulesErr != nil {
			rulesErr = fmt.Errorf("failed to parse channel table: %w", rulesErr)
		}
	})
	return rules, rulesErr
}

// Keyword query parameters conventionally used by search engines.
var keywordParams = []string{"query", "q", "keyword"}

// Classifier classifies referrers relative to one site host.
type Classifier struct {
	siteHost string
}

// NewClassifier returns a classifier for the given site host. The host is
// compared case-insensitively and without a www prefix, so "Example.com"
// and "www.example.com" refer to the same site.
func NewClassifier(siteHost string) *Classifier {
	return &Classifier{siteHost: normalizeHost(siteHost)}
}

// Classify maps a referrer URL and the current page's query string into a
// channel plus optional keyword and UTM fields. It is deterministic: same
// inputs always produce the same result, and it never errors - unparseable
// referrers degrade to ChannelOther.
func (c *Classifier) Classify(referrerURL, currentQuery string) Attribution {
	attr := Attribution{ChannelType: ChannelDirect}
	fillUTM(&attr, currentQuery)

	if referrerURL == "" {
		return attr
	}

	parsed, err := url.Parse(referrerURL)
	if err != nil || parsed.Hostname() == "" {
		attr.ChannelType = ChannelOther
		return attr
	}

	host := normalizeHost(parsed.Hostname())

	table, err := loadRules()
	if err == nil {
		for _, rule := range table {
			if hostMatches(host, rule.Domain) {
				attr.ChannelType = Channel(rule.Channel)
				if attr.ChannelType == ChannelSearch {
					attr.SearchKeyword = extractKeyword(parsed)
				}
				return attr
			}
		}
	}

	if host == c.siteHost {
		attr.ChannelType = ChannelInternal
		return attr
	}

	attr.ChannelType = ChannelOther
	return attr
}

// SiteHost returns the normalized host this classifier treats as internal.
func (c *Classifier) SiteHost() string {
	return c.siteHost
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// hostMatches reports whether host equals domain or is a subdomain of it.
func hostMatches(host, domain string) bool {
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func extractKeyword(referrer *url.URL) string {
	query := referrer.Query()
	for _, param := range keywordParams {
		if v := query.Get(param); v != "" {
			return v
		}
	}
	return ""
}

// fillUTM reads UTM fields from the current page's own query string.
// They are independent of the referrer.
func fillUTM(attr *Attribution, currentQuery string) {
	currentQuery = strings.TrimPrefix(currentQuery, "?")
	if currentQuery == "" {
		return
	}

	values, err := url.ParseQuery(currentQuery)
	if err != nil {
		return
	}

	attr.UTMSource = values.Get("utm_source")
	attr.UTMMedium = values.Get("utm_medium")
	attr.UTMCampaign = values.Get("utm_campaign")
	attr.UTMTerm = values.Get("utm_term")
	attr.UTMContent = values.Get("utm_content")
}
