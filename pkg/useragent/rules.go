package useragent

import (
	"regexp"
	"strings"
)

type keywords []string

func (k keywords) in(s string) bool {
	for _, w := range k {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	botWords     = keywords{"bot", "spider", "crawler", "slurp", "fetcher", "scraper", "monitor", "headless", "curl/", "wget/", "python-requests", "go-http-client"}
	tabletWords  = keywords{"ipad", "tablet", "kindle", "silk"}
	mobileWords  = keywords{"mobile", "iphone", "ipod", "windows phone", "blackberry"}
	desktopWords = keywords{"windows", "macintosh", "mac os x", "linux", "x11", "cros"}
)

var botNames = regexp.MustCompile(`(?i)([a-z0-9\-_]+(?:bot|spider|crawler))`)

// Checked in order: Chromium forks mention "chrome" and Chrome mentions
// "safari", so the more specific names come first.
var browserRules = []struct {
	name    string
	match   keywords
	exclude keywords
	version *regexp.Regexp
}{
	{BrowserEdge, keywords{"edg/", "edge/"}, nil, regexp.MustCompile(`(?:edge|edg)/([\d.]+)`)},
	{BrowserSamsung, keywords{"samsungbrowser"}, nil, regexp.MustCompile(`samsungbrowser/([\d.]+)`)},
	{BrowserYandex, keywords{"yabrowser"}, nil, regexp.MustCompile(`yabrowser/([\d.]+)`)},
	{BrowserVivaldi, keywords{"vivaldi"}, nil, regexp.MustCompile(`vivaldi/([\d.]+)`)},
	{BrowserOpera, keywords{"opr/", "opera"}, nil, regexp.MustCompile(`(?:opr|opera)[/ ]([\d.]+)`)},
	{BrowserFirefox, keywords{"firefox/", "fxios/"}, nil, regexp.MustCompile(`(?:firefox|fxios)/([\d.]+)`)},
	{BrowserChrome, keywords{"chrome/", "crios/"}, nil, regexp.MustCompile(`(?:chrome|crios)/([\d.]+)`)},
	{BrowserSafari, keywords{"safari/"}, keywords{"chrome", "chromium", "android"}, regexp.MustCompile(`version/([\d.]+)`)},
	{BrowserIE, keywords{"msie ", "trident/"}, nil, regexp.MustCompile(`msie ([\d.]+)`)},
}

var osRules = []struct {
	name  string
	match keywords
}{
	{OSWindowsPhone, keywords{"windows phone"}},
	{OSWindows, keywords{"windows"}},
	{OSiOS, keywords{"iphone", "ipad", "ipod"}},
	{OSMacOS, keywords{"macintosh", "mac os x"}},
	{OSAndroid, keywords{"android"}},
	{OSChromeOS, keywords{"cros"}},
	{OSLinux, keywords{"linux", "x11"}},
}

func detectDevice(lower string) string {
	switch {
	case botWords.in(lower):
		return DeviceBot
	case tabletWords.in(lower):
		return DeviceTablet
	case strings.Contains(lower, "android"):
		// Android tablets omit "mobile"
		if strings.Contains(lower, "mobile") {
			return DeviceMobile
		}
		return DeviceTablet
	case mobileWords.in(lower):
		return DeviceMobile
	case desktopWords.in(lower):
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

func detectBrowser(lower string) (string, string) {
	for _, r := range browserRules {
		if !r.match.in(lower) || r.exclude.in(lower) {
			continue
		}
		if m := r.version.FindStringSubmatch(lower); len(m) > 1 {
			return r.name, majorMinor(m[1])
		}
		if r.name == BrowserIE {
			return r.name, "11.0"
		}
		return r.name, ""
	}
	return "", ""
}

func detectOS(lower string) string {
	for _, r := range osRules {
		if r.match.in(lower) {
			return r.name
		}
	}
	return ""
}

// majorMinor trims "120.0.6099.71" to "120.0".
func majorMinor(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) > 2 {
		return parts[0] + "." + parts[1]
	}
	return v
}
