package enedis

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/internal/metrics"
	"golang.org/x/oauth2"
)

const endpointToken = "token"

// TokenGrant is the token endpoint response reduced to what the gateway stores.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds, as sent by the provider
	IssuedAt     int64 // milliseconds since epoch, as sent by the provider
}

// ExpiresAt computes expires_in*1000 + issued_at, in milliseconds since epoch.
// The provider's units are taken at face value.
func (g TokenGrant) ExpiresAt() time.Time {
	return time.UnixMilli(g.ExpiresIn*1000 + g.IssuedAt)
}

// AuthCodeURL builds the consent page URL carrying client_id, state, duration,
// response_type=code and redirect_uri.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("duration", c.duration))
}

// ExchangeCode trades an authorization code for tokens. A 2xx answer that cannot be read as a
// token (no access_token, bad JSON) is a malformed payload; a non-2xx or transport failure is not.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	recorder := &statusRecorder{next: c.httpClient.Transport}
	hc := *c.httpClient
	hc.Transport = recorder
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &hc)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		switch {
		case apperrors.As(err, &re) && re.Response != nil:
			metrics.UpstreamRequests.WithLabelValues(endpointToken, strconv.Itoa(re.Response.StatusCode)).Inc()
			return nil, &apperrors.UpstreamError{Endpoint: endpointToken, StatusCode: re.Response.StatusCode, Body: string(re.Body), Err: err}
		case recorder.succeeded():
			metrics.UpstreamRequests.WithLabelValues(endpointToken, strconv.Itoa(recorder.status)).Inc()
			return nil, fmt.Errorf("[enedis ExchangeCode] %w", apperrors.Malformed("token response: %v", err))
		}
		metrics.UpstreamRequests.WithLabelValues(endpointToken, "error").Inc()
		return nil, &apperrors.UpstreamError{Endpoint: endpointToken, Err: err}
	}
	metrics.UpstreamRequests.WithLabelValues(endpointToken, strconv.Itoa(http.StatusOK)).Inc()

	expiresIn, ok := extraInt64(tok.Extra("expires_in"))
	if !ok {
		return nil, fmt.Errorf("[enedis ExchangeCode] %w", apperrors.Malformed("token response has no numeric expires_in"))
	}
	issuedAt, ok := extraInt64(tok.Extra("issued_at"))
	if !ok {
		return nil, fmt.Errorf("[enedis ExchangeCode] %w", apperrors.Malformed("token response has no numeric issued_at"))
	}

	return &TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		IssuedAt:     issuedAt,
	}, nil
}

// statusRecorder remembers the status of the last response it carried.
type statusRecorder struct {
	next   http.RoundTripper
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	next := r.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if resp != nil {
		r.status = resp.StatusCode
	}
	return resp, err
}

func (r *statusRecorder) succeeded() bool {
	return r.status >= 200 && r.status < 300
}
