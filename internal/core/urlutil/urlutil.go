// SPDX-License-Identifier: MIT

package urlutil

import (
	"net/url"
	"strings"
)

// sensitiveParams are query keys that carry credentials.
var sensitiveParams = []string{"api_key", "x-emby-token", "token", "password"}

// SanitizeURL removes user info and credential query parameters from a URL
// string for safe logging. Other query parameters are kept.
func SanitizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	if parsedURL.RawQuery != "" {
		q := parsedURL.Query()
		for key := range q {
			if isSensitive(key) {
				q.Del(key)
			}
		}
		parsedURL.RawQuery = q.Encode()
	}
	return parsedURL.String()
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveParams {
		if k == s {
			return true
		}
	}
	return false
}
