package enedis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/enedis-gateway/internal/config"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxBodySize = 10 << 20

// Client talks to the Enedis data hub: consent, token exchange, customer and metering endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	duration   string
	oauth      *oauth2.Config
	nowTime    func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport (primarily for testing)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient builds a client from the provider configuration. A zero RequestTimeout
// leaves outbound calls unbounded.
func NewClient(cfg config.Enedis, options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		duration:   cfg.Duration,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  tokenURLWithRedirect(cfg.TokenURL, cfg.RedirectURI),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(c)
	}
	return c
}

// tokenURLWithRedirect appends redirect_uri to the token endpoint query, where Enedis expects it.
func tokenURLWithRedirect(tokenURL, redirectURI string) string {
	u, err := url.Parse(tokenURL)
	if err != nil || redirectURI == "" {
		return tokenURL
	}
	q := u.Query()
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String()
}

// getJSON performs an authenticated GET and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, accessToken string, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("[enedis %s] failed to build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return &apperrors.UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &apperrors.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 512)).
			Msg("Enedis request failed")
		return &apperrors.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Malformed("%s: %v", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
