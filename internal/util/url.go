package util

import (
	"net/url"
)

// secretParams are query parameters that must never reach the logs.
var secretParams = []string{
	"access_token",
	"appsecret_proof",
	"client_secret",
}

// RedactURL masks credential query parameters. Unparsable input is replaced
// entirely since it may still contain a token.
func RedactURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "<unparsable url>"
	}
	queryParams := parsedURL.Query()
	changed := false
	for _, param := range secretParams {
		if queryParams.Has(param) {
			queryParams.Set(param, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	parsedURL.RawQuery = queryParams.Encode()
	return parsedURL.String()
}
