// Utilities for importing a browser session from a copied cURL command.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A cookie passed with -b wins over a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie, headerCookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		headerLine := firstGroup(match)

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	if m := cookieRegex.FindStringSubmatch(curlCmd); len(m) > 1 {
		cookie = firstGroup(m)
	}
	if cookie == "" {
		cookie = headerCookie
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &CurlHeaders{Headers: headers, Cookie: cookie}, nil
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// Cookies splits the cookie string into [http.Cookie] values, skipping malformed pairs.
func (c *CurlHeaders) Cookies() []*http.Cookie {
	return ParseCookieString(c.Cookie)
}

// ParseCookieString parses a "a=1; b=2" cookie header value.
func ParseCookieString(raw string) []*http.Cookie {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	cookies, err := http.ParseCookie(raw)
	if err == nil {
		return cookies
	}

	// http.ParseCookie rejects the whole line on one bad pair
	var out []*http.Cookie
	for _, pair := range strings.Split(raw, ";") {
		if parsed, err := http.ParseCookie(strings.TrimSpace(pair)); err == nil {
			out = append(out, parsed...)
		}
	}
	return out
}

// ResolveSessionCookies returns the session cookies configured for the backend.
//
// An inline session_cookie takes precedence over curl_path. Neither set yields [ErrNoSession].
func ResolveSessionCookies(b BackendConfig) ([]*http.Cookie, error) {
	if b.SessionCookie != "" {
		cookies := ParseCookieString(b.SessionCookie)
		if len(cookies) == 0 {
			return nil, fmt.Errorf("%w: backend.session_cookie is malformed", ErrInvalidConfig)
		}
		return cookies, nil
	}

	if b.CurlPath == "" {
		return nil, ErrNoSession
	}

	parsed, err := ParseCurlFile(b.CurlPath)
	if err != nil {
		return nil, err
	}

	cookies := parsed.Cookies()
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: %s carries no cookies", ErrNoSession, b.CurlPath)
	}
	return cookies, nil
}
