// Package useragent turns User-Agent headers into short client labels.
//
// Detection is keyword based and deliberately coarse: browser family and
// major.minor version, operating system, device class and bot name.
//
//	useragent.Summary(r.UserAgent()) // "Firefox 126.0 on Linux (desktop)"
package useragent
