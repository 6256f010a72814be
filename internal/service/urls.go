// internal/service/urls.go
package service

import (
	"strings"
	"time"
)

// ShareLink builds the externally shared, durable link shape:
// <origin>/link/<contractAddress>.
func ShareLink(origin, contractAddress string) string {
	return strings.TrimRight(origin, "/") + "/link/" + contractAddress
}

// FullRedirectURL appends the referrer to the campaign destination.
func FullRedirectURL(redirectURL, account string) string {
	return redirectURL + "?ref=" + account
}

// DateString buckets a timestamp to its calendar day.
func DateString(ts time.Time) string {
	return ts.Format("2006-01-02")
}
