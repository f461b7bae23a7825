package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	safariIPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	chromeAndroidUA = "Mozilla/5.0 (Linux; Android 14; SM-S921B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36"
	safariIPadUA    = "Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	firefoxLinuxUA  = "Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0"
	edgeWindowsUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0"
)

func TestIsBot(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want bool
	}{
		{name: "empty is bot", ua: "", want: true},
		{name: "whitespace is bot", ua: "   ", want: true},
		{name: "googlebot", ua: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", want: true},
		{name: "generic crawler token", ua: "SomeCrawler/1.0", want: true},
		{name: "case insensitive", ua: "MyBOT agent", want: true},
		{name: "curl", ua: "curl/8.4.0", want: true},
		{name: "headless chrome", ua: "Mozilla/5.0 HeadlessChrome/126.0.0.0", want: true},
		{name: "real chrome", ua: chromeWindowsUA, want: false},
		{name: "real iphone safari", ua: safariIPhoneUA, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsBot(tc.ua))
		})
	}
}

func TestFingerprintDeviceType(t *testing.T) {
	assert.Equal(t, DeviceDesktop, Fingerprint(chromeWindowsUA).Type)
	assert.Equal(t, DeviceMobile, Fingerprint(safariIPhoneUA).Type)
	assert.Equal(t, DeviceMobile, Fingerprint(chromeAndroidUA).Type)
	// Tablets match before mobile; Android without Mobile is a tablet
	assert.Equal(t, DeviceTablet, Fingerprint(safariIPadUA).Type)
	assert.Equal(t, DeviceTablet, Fingerprint("Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 Chrome/126.0.0.0 Safari/537.36").Type)
}

func TestFingerprintBrowserCascade(t *testing.T) {
	// Chromium forks must win over the Chrome token they also carry
	assert.Equal(t, "edge", Fingerprint(edgeWindowsUA).Browser)
	assert.Equal(t, "chrome", Fingerprint(chromeWindowsUA).Browser)
	assert.Equal(t, "firefox", Fingerprint(firefoxLinuxUA).Browser)
	assert.Equal(t, "safari", Fingerprint(safariIPhoneUA).Browser)
}

func TestFingerprintOSAndBrand(t *testing.T) {
	desktop := Fingerprint(chromeWindowsUA)
	assert.Equal(t, "Windows", desktop.OS)

	iphone := Fingerprint(safariIPhoneUA)
	assert.Equal(t, "iOS", iphone.OS)
	assert.Equal(t, "Apple", iphone.Brand)

	android := Fingerprint(chromeAndroidUA)
	assert.Equal(t, "Android", android.OS)
	assert.Equal(t, "Samsung", android.Brand)

	linux := Fingerprint(firefoxLinuxUA)
	assert.Equal(t, "Linux", linux.OS)
	assert.Empty(t, linux.Brand)
}

func TestFingerprintUnknownAgentDegrades(t *testing.T) {
	device := Fingerprint("SomethingNobodyHasEverSeen/0.1")
	assert.Equal(t, DeviceDesktop, device.Type)
	assert.Empty(t, device.Brand)
	assert.Empty(t, device.Browser)
	assert.Empty(t, device.OS)
}
