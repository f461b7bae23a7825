// Package useragent provides best-effort device, brand, browser and OS
// classification from user-agent strings, plus the bot gate used by the
// event collector. The rules live in an embedded YAML table and are
// evaluated as ordered first-match-wins cascades; misclassification is
// tolerated and never raises an error.
package useragent

import (
	_ "embed"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// Device type values stored on page views and sessions.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Device is the result of fingerprinting a user-agent string. Unknown
// axes are left as empty strings, except Type which defaults to desktop.
type Device struct {
	Type    string
	Brand   string
	Browser string
	OS      string
}

//go:embed rules.yml
var rulesYAML []byte

type rawRule struct {
	Regex string `yaml:"regex"`
	Value string `yaml:"value"`
}

type ruleTable struct {
	Bots     []string  `yaml:"bots"`
	Devices  []rawRule `yaml:"devices"`
	Brands   []rawRule `yaml:"brands"`
	Browsers []rawRule `yaml:"browsers"`
	OSs      []rawRule `yaml:"oss"`
}

type compiledRule struct {
	regex *pcre.Regexp
	value string
}

type matcher struct {
	bots     []string
	devices  []compiledRule
	brands   []compiledRule
	browsers []compiledRule
	oss      []compiledRule
}

var (
	defaultMatcher *matcher
	once           sync.Once
)

func getMatcher() *matcher {
	once.Do(func() {
		var table ruleTable
		if err := yaml.Unmarshal(rulesYAML, &table); err != nil {
			// An empty matcher classifies everything as desktop/unknown,
			// which is the documented degraded behavior.
			defaultMatcher = &matcher{}
			return
		}

		defaultMatcher = &matcher{
			bots:     table.Bots,
			devices:  compileRules(table.Devices),
			brands:   compileRules(table.Brands),
			browsers: compileRules(table.Browsers),
			oss:      compileRules(table.OSs),
		}
	})
	return defaultMatcher
}

func compileRules(raw []rawRule) []compiledRule {
	compiled := make([]compiledRule, 0, len(raw))
	for _, r := range raw {
		regex, err := pcre.Compile(r.Regex)
		if err != nil {
			continue
		}
		compiled = append(compiled, compiledRule{regex: regex, value: r.Value})
	}
	return compiled
}

func firstMatch(rules []compiledRule, userAgent, fallback string) string {
	for _, rule := range rules {
		if rule.regex.MatchString(userAgent) {
			return rule.value
		}
	}
	return fallback
}

// Fingerprint classifies a user-agent string along four independent axes.
// Each axis is evaluated separately, so an exotic agent can still get a
// useful device type even when its browser is unknown.
func Fingerprint(userAgent string) Device {
	m := getMatcher()
	return Device{
		Type:    firstMatch(m.devices, userAgent, DeviceDesktop),
		Brand:   firstMatch(m.brands, userAgent, ""),
		Browser: firstMatch(m.browsers, userAgent, ""),
		OS:      firstMatch(m.oss, userAgent, ""),
	}
}

// IsBot reports whether the user agent matches a known automated-agent
// signature. The check is a case-insensitive substring match over a fixed
// token list; an empty user agent is treated as a bot since no real
// browser sends one.
func IsBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}

	lower := strings.ToLower(userAgent)
	for _, token := range getMatcher().bots {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
