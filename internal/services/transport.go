package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/shared"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000"
	refreshPath    = "/refresh-user-token"
	requestIDKey   = "X-Request-ID"
)

// TransportOptions configures a [Transport].
type TransportOptions struct {
	BaseURL           string
	LoginURL          string
	Timeout           time.Duration
	RequestsPerSecond float64        // 0 disables limiting
	Cookies           []*http.Cookie // seeded into the jar for BaseURL
	HTTPClient        *http.Client   // a jar is attached when the client has none
	Logger            *log.Logger
}

// Transport issues authenticated GET requests and recovers from an expired session at most once per call.
type Transport struct {
	baseURL    *url.URL
	loginURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewTransport creates a [Transport] from the given options.
func NewTransport(opts TransportOptions) (*Transport, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", shared.ErrInvalidArgument, opts.BaseURL)
	}

	if opts.LoginURL == "" {
		opts.LoginURL = base.String() + "/login"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var client http.Client
	if opts.HTTPClient != nil {
		client = *opts.HTTPClient
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client.Jar = jar
	}
	if len(opts.Cookies) > 0 {
		client.Jar.SetCookies(base, opts.Cookies)
	}

	limit, burst := rate.Inf, 0
	if opts.RequestsPerSecond > 0 {
		limit, burst = rate.Limit(opts.RequestsPerSecond), 1
	}

	return &Transport{
		baseURL:    base,
		loginURL:   opts.LoginURL,
		httpClient: &client,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     shared.WithLogger(opts.Logger, "component", "transport"),
	}, nil
}

// LoginURL is the page the shell opens when a session cannot be recovered.
func (t *Transport) LoginURL() string {
	return t.loginURL
}

// errorBody is the shape of non-200 bodies.
type errorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	NeedsRefresh bool   `json:"needs_refresh"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func parseErrorBody(body []byte) errorBody {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	return eb
}

// Call issues GET endpoint and returns the body of a 200 response.
//
// Any failure is returned as a [*TransportError]. A 401 with needs_refresh=true triggers one refresh and one
// re-issue of the original request whose outcome is final: a second 401 is [KindAuthExpired].
func (t *Transport) Call(ctx context.Context, endpoint string) ([]byte, error) {
	requestID := shared.GenerateID()
	logger := t.logger.With("endpoint", endpoint, "request_id", requestID)

	status, body, err := t.get(ctx, endpoint, requestID)
	if err != nil {
		logger.Warn("request failed", "err", err)
		return nil, unknownError(http.StatusInternalServerError, err.Error())
	}

	if status == http.StatusOK {
		return body, nil
	}

	eb := parseErrorBody(body)
	if status != http.StatusUnauthorized {
		return nil, unknownError(status, eb.text())
	}

	if !eb.NeedsRefresh {
		logger.Info("session not refreshable")
		return nil, t.authError(KindUnauthorized, status, eb.text())
	}

	logger.Debug("access token expired, refreshing")
	if terr := t.refresh(ctx, requestID); terr != nil {
		logger.Warn("refresh failed", "status", terr.Status, "message", terr.Message)
		return nil, terr
	}

	status, body, err = t.get(ctx, endpoint, requestID)
	if err != nil {
		logger.Warn("retry failed", "err", err)
		return nil, unknownError(http.StatusInternalServerError, err.Error())
	}

	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		logger.Warn("retry rejected after refresh")
		return nil, t.authError(KindAuthExpired, status, parseErrorBody(body).text())
	default:
		return nil, unknownError(status, parseErrorBody(body).text())
	}
}

// refresh asks the backend to rotate the access token. The new credential arrives through the jar.
func (t *Transport) refresh(ctx context.Context, requestID string) *TransportError {
	status, body, err := t.get(ctx, refreshPath, requestID)
	if err != nil {
		return t.authError(KindAuthExpired, http.StatusInternalServerError, err.Error())
	}
	if status != http.StatusOK {
		return t.authError(KindAuthExpired, status, parseErrorBody(body).text())
	}
	return nil
}

func (t *Transport) authError(kind ErrorKind, status int, message string) *TransportError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &TransportError{
		Kind:       kind,
		Status:     status,
		Message:    message,
		Navigation: Navigation{Kind: NavigateLogin, URL: t.loginURL},
	}
}

func (t *Transport) get(ctx context.Context, endpoint, requestID string) (int, []byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL.String()+endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDKey, requestID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
