package useragent

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

const (
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserSamsung = "Samsung Internet"
	BrowserYandex  = "Yandex"
	BrowserVivaldi = "Vivaldi"
	BrowserIE      = "Internet Explorer"
)

const (
	OSWindows      = "Windows"
	OSWindowsPhone = "Windows Phone"
	OSMacOS        = "macOS"
	OSiOS          = "iOS"
	OSAndroid      = "Android"
	OSChromeOS     = "ChromeOS"
	OSLinux        = "Linux"
)

// maxLength bounds the input scanned; longer headers are truncated.
const maxLength = 512

// Client is what a User-Agent header says about the caller. Empty fields
// were not recognised.
type Client struct {
	Browser        string
	BrowserVersion string
	OS             string
	Device         string
	BotName        string
}

// Parse inspects a User-Agent header. It never fails; unrecognised input
// yields Device == DeviceUnknown.
func Parse(ua string) Client {
	ua = strings.TrimSpace(ua)
	if len(ua) > maxLength {
		ua = ua[:maxLength]
	}
	lower := strings.ToLower(ua)
	if lower == "" {
		return Client{Device: DeviceUnknown}
	}

	c := Client{Device: detectDevice(lower), OS: detectOS(lower)}
	if c.Device == DeviceBot {
		c.BotName = botName(ua)
		return c
	}
	c.Browser, c.BrowserVersion = detectBrowser(lower)
	return c
}

// Summary renders a short label such as "Chrome 120.0 on macOS (desktop)",
// suitable for audit trails and "recent activity" lists.
func (c Client) Summary() string {
	if c.Device == DeviceBot {
		return "Bot: " + c.BotName
	}

	browser := c.Browser
	if browser == "" {
		browser = "Unknown browser"
	} else if c.BrowserVersion != "" {
		browser += " " + c.BrowserVersion
	}

	os := c.OS
	if os == "" {
		os = "unknown OS"
	}

	device := c.Device
	if device == "" {
		device = DeviceUnknown
	}

	return fmt.Sprintf("%s on %s (%s)", browser, os, device)
}

// Summary is shorthand for Parse(ua).Summary(). Empty input returns "".
func Summary(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ""
	}
	return Parse(ua).Summary()
}

func botName(ua string) string {
	m := botNames.FindStringSubmatch(ua)
	if len(m) < 2 {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.ToLower(m[1]))
}
