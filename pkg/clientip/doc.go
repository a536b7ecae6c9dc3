// Package clientip resolves the client address recorded on two-factor
// attempts and audit events.
//
// By default only the TCP peer address is used. Behind a load balancer,
// trust its network and the header it sets:
//
//	proxies, _ := clientip.ParsePrefixes([]string{"10.0.0.0/8"})
//	ips := clientip.New(
//		clientip.WithTrustedProxies(proxies...),
//		clientip.WithTrustedHeaders("X-Forwarded-For"),
//	)
//	ip := ips.IP(r)
package clientip
