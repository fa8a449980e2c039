// Package enedistest runs a fake Enedis data hub for tests.
package enedistest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/enedis-gateway/internal/config"
)

const (
	ClientID     = "test-client-id"
	ClientSecret = "test-client-secret"
	RedirectURI  = "https://gateway.example.com/redirect"

	CustomerID   = "1358019319"
	UsagePointID = "22516914714270"
	AccessToken  = "enedis-access-token"
	RefreshToken = "enedis-refresh-token"
	ExpiresIn    = int64(12600)
	IssuedAt     = int64(1487075532179)

	TokenPath     = "/v1/oauth2/token"
	IdentityPath  = "/v3/customers/identity"
	ContactPath   = "/v3/customers/contact_data"
	ContractsPath = "/v3/customers/usage_points/contracts"
	AddressesPath = "/v3/customers/usage_points/addresses"
	MeteringPath  = "/v3/metering_data/"
)

// Request is what the fake saw of one inbound call.
type Request struct {
	Path          string
	Query         url.Values
	Form          url.Values
	Authorization string
	Accept        string
}

// Server serves canned Enedis responses. Bodies and statuses can be overridden per path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string]string
	statuses map[string]int
	requests []Request
}

// NewServer starts a fake with default fixtures and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		bodies:   defaultBodies(),
		statuses: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Config points an Enedis client at the fake.
func (s *Server) Config() config.Enedis {
	return config.Enedis{
		ClientID:     ClientID,
		ClientSecret: ClientSecret,
		Duration:     "P6M",
		RedirectURI:  RedirectURI,
		APIBaseURL:   s.URL,
		AuthorizeURL: s.URL + "/oauth2/authorize",
		TokenURL:     s.URL + TokenPath,
		DeepLink:     "enedis-third-party-app://auth_complete",
	}
}

func (s *Server) SetBody(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
}

func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// Requests returns every call received so far whose path starts with prefix.
func (s *Server) Requests(prefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) Hits(prefix string) int {
	return len(s.Requests(prefix))
}

// TotalHits counts every call the fake received.
func (s *Server) TotalHits() int {
	return s.Hits("/")
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Form:          r.PostForm,
		Authorization: r.Header.Get("Authorization"),
		Accept:        r.Header.Get("Accept"),
	})
	status, forced := s.statuses[r.URL.Path]
	body, ok := s.bodies[r.URL.Path]
	s.mu.Unlock()

	if forced {
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, `{"error":"forced"}`)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, body)
}

// MeteringBody is the default payload served for every metering kind: two half-hour
// readings starting 2023-01-01T00:00:00Z with a 30 second interval.
const MeteringBody = `{
  "usage_point": [{
    "meter_reading": {
      "usage_point_id": "` + UsagePointID + `",
      "start": "2023-01-01T00:00:00Z",
      "end": "2023-01-02T00:00:00Z",
      "quality": "BRUT",
      "reading_type": {"unit": "W", "measurement_kind": "power", "aggregate": "average", "interval_length": "30"},
      "interval_reading": [
        {"value": "540", "rank": "1"},
        {"value": "522", "rank": "2"}
      ]
    }
  }]
}`

func defaultBodies() map[string]string {
	bodies := map[string]string{
		TokenPath: fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":%d,"refresh_token":%q,"issued_at":"%d","scope":"/v3/customers/identity.GET"}`,
			AccessToken, ExpiresIn, RefreshToken, IssuedAt),
		IdentityPath: `[{"customer":{"customer_id":"` + CustomerID + `","identity":{"natural_person":{"title":"Mme","firstname":"Sandra","lastname":"Thi"}}}}]`,
		ContactPath:  `[{"customer":{"customer_id":"` + CustomerID + `","contact_data":{"phone":"0245323491","email":"sandra.thi@wanadoo.fr"}}}]`,
		ContractsPath: `[{"customer":{"customer_id":"` + CustomerID + `","usage_points":[{"usage_point":{"usage_point_id":"` + UsagePointID +
			`","usage_point_status":"com","meter_type":"AMM","contracts":{"segment":"C5","subscribed_power":"9","offpeak_hours":"23h-7h","contract_type":"CARD-S","contract_status":"SERVC"}}}]}}]`,
		AddressesPath: `[{"customer":{"customer_id":"` + CustomerID + `","usage_points":[{"usage_point":{"usage_point_id":"` + UsagePointID +
			`","usage_point_status":"com","usage_point_addresses":{"street":"2 bis rue du capitaine Flam","locality":"lieudit Tourtouze","postal_code":"32400","insee_code":"32244","city":"Maulichères","country":"France"}}}]}}]`,
	}
	for _, kind := range []string{"consumption_load_curve", "consumption_max_power", "daily_consumption", "daily_production"} {
		bodies[MeteringPath+kind] = MeteringBody
	}
	return bodies
}
