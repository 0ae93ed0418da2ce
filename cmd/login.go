package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/scorify/internal/shared"
	"github.com/urfave/cli/v3"
)

// devLogin is the body of the stub backend's /login response.
type devLogin struct {
	UserID        string `json:"user_id"`
	SessionCookie string `json:"session_cookie"`
	Error         string `json:"error"`
}

// Login opens the backend login page in a browser.
//
// With --dev it logs in against the stub backend instead and prints the session cookie to put in the config. With
// --curl-file it reads the cookie out of a request copied from the browser.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	switch {
	case cmd.String("curl-file") != "":
		return r.loginFromCurl(cmd.String("curl-file"))
	case cmd.Bool("dev"):
		return r.devLogin(ctx, cmd.String("user"))
	}

	loginURL := r.config.Backend.LoginURL()
	r.logger.Info("opening login page", "url", loginURL)

	if err := r.openURL(loginURL); err != nil {
		r.writePlain("Open this URL in your browser:\n  %s\n", loginURL)
		return err
	}

	r.writePlain("✓ Opened %s\n", loginURL)
	r.writePlainln("After logging in, copy a request to %s as cURL and run:", r.config.Backend.BaseURL)
	r.writePlain("  scorify login --curl-file request.sh\n")
	return nil
}

func (r *Runner) loginFromCurl(path string) error {
	parsed, err := shared.ParseCurlFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse cURL file: %w", err)
	}

	cookies := parsed.Cookies()
	if len(cookies) == 0 {
		return fmt.Errorf("%w: %s carries no cookies", shared.ErrNoSession, path)
	}

	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}

	r.logger.Info("parsed session cookies", "file", path, "count", len(cookies))
	r.writePlain("✓ Found %d cookies\n", len(cookies))
	r.writePlainln("Add this to the [backend] section of %s:", r.configName())
	r.writePlain("  session_cookie = %q\n", strings.Join(pairs, "; "))
	r.writePlain("or keep the file and set:\n  curl_path = %q\n", path)
	return nil
}

func (r *Runner) devLogin(ctx context.Context, user string) error {
	u, err := url.Parse(r.config.Backend.LoginURL())
	if err != nil {
		return fmt.Errorf("%w: login url: %v", shared.ErrInvalidConfig, err)
	}
	if user != "" {
		q := u.Query()
		q.Set("user", user)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var login devLogin
	if err := json.Unmarshal(body, &login); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, login.Error)
	}
	if login.SessionCookie == "" {
		return fmt.Errorf("%w: login response carries no session cookie", shared.ErrNoSession)
	}

	r.logger.Info("logged in", "user", login.UserID)
	r.writePlain("✓ Logged in as %s\n", login.UserID)
	r.writePlainln("Add this to the [backend] section of %s:", r.configName())
	r.writePlain("  session_cookie = %q\n", login.SessionCookie)
	return nil
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return defaultConfigPath
	}
	return r.configPath
}
