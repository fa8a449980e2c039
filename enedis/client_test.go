package enedis_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/enedis-gateway/enedis"
	"github.com/jrsteele09/enedis-gateway/enedis/enedistest"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*enedis.Client, *enedistest.Server) {
	t.Helper()
	srv := enedistest.NewServer(t)
	return enedis.NewClient(srv.Config()), srv
}

func TestFetchMeteringData(t *testing.T) {
	ctx := context.Background()

	t.Run("sends window, usage point and credentials", func(t *testing.T) {
		client, srv := newClient(t)
		start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)

		payload, err := client.FetchMeteringData(ctx, enedis.ConsumptionLoadCurve, "tok", enedistest.UsagePointID, start, end)
		require.NoError(t, err)
		require.Len(t, payload.UsagePoints, 1)
		require.Equal(t, "W", payload.UsagePoints[0].MeterReading.ReadingType.Unit)

		reqs := srv.Requests(enedistest.MeteringPath + "consumption_load_curve")
		require.Len(t, reqs, 1)
		require.Equal(t, "Bearer tok", reqs[0].Authorization)
		require.Equal(t, "application/json", reqs[0].Accept)
		require.Equal(t, "2023-01-01T00:00:00.000Z", reqs[0].Query.Get("start"))
		require.Equal(t, "2023-01-02T00:00:00.000Z", reqs[0].Query.Get("end"))
		require.Equal(t, enedistest.UsagePointID, reqs[0].Query.Get("usage_point_id"))
	})

	t.Run("recent window is ten days back from now", func(t *testing.T) {
		srv := enedistest.NewServer(t)
		now := time.Date(2024, 3, 11, 15, 4, 5, 0, time.UTC)
		client := enedis.NewClient(srv.Config(), enedis.WithNowTime(func() time.Time { return now }))

		_, err := client.FetchRecentMeteringData(ctx, enedis.DailyConsumption, "tok", enedistest.UsagePointID)
		require.NoError(t, err)

		reqs := srv.Requests(enedistest.MeteringPath + "daily_consumption")
		require.Len(t, reqs, 1)
		require.Equal(t, "2024-03-01T15:04:05.000Z", reqs[0].Query.Get("start"))
		require.Equal(t, "2024-03-11T15:04:05.000Z", reqs[0].Query.Get("end"))
	})

	t.Run("403 is an unauthorized client", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetStatus(enedistest.MeteringPath+"daily_production", http.StatusForbidden)

		_, err := client.FetchMeteringData(ctx, enedis.DailyProduction, "tok", enedistest.UsagePointID, time.Now(), time.Now())
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)

		var upstreamErr *apperrors.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		require.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	})

	t.Run("other statuses are failures", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetStatus(enedistest.MeteringPath+"daily_production", http.StatusServiceUnavailable)

		_, err := client.FetchMeteringData(ctx, enedis.DailyProduction, "tok", enedistest.UsagePointID, time.Now(), time.Now())
		require.ErrorIs(t, err, apperrors.ErrUpstreamFailure)
		require.NotErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)
	})

	t.Run("unknown kind never leaves the process", func(t *testing.T) {
		client, srv := newClient(t)
		_, err := client.FetchMeteringData(ctx, enedis.MeteringKind("weekly"), "tok", enedistest.UsagePointID, time.Now(), time.Now())
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		require.Equal(t, 0, srv.TotalHits())
	})

	t.Run("malformed payloads", func(t *testing.T) {
		cases := map[string]string{
			"not json":            `<html>`,
			"no usage_point":      `{}`,
			"missing start":       `{"usage_point":[{"meter_reading":{"usage_point_id":"1","end":"2023-01-02","reading_type":{"unit":"W"},"interval_reading":[]}}]}`,
			"missing interval":    `{"usage_point":[{"meter_reading":{"usage_point_id":"1","start":"2023-01-01","end":"2023-01-02","reading_type":{"unit":"W"},"interval_reading":[{"value":"1","rank":"1"},{"value":"2","rank":"2"}]}}]}`,
			"rank zero":           `{"usage_point":[{"meter_reading":{"usage_point_id":"1","start":"2023-01-01","end":"2023-01-02","reading_type":{"unit":"W","interval_length":"30"},"interval_reading":[{"value":"1","rank":"0"}]}}]}`,
			"non numeric value":   `{"usage_point":[{"meter_reading":{"usage_point_id":"1","start":"2023-01-01","end":"2023-01-02","reading_type":{"unit":"W"},"interval_reading":[{"value":"abc","rank":"1"}]}}]}`,
			"missing value":       `{"usage_point":[{"meter_reading":{"usage_point_id":"1","start":"2023-01-01","end":"2023-01-02","reading_type":{"unit":"W"},"interval_reading":[{"rank":"1"}]}}]}`,
			"missing usage point": `{"usage_point":[{"meter_reading":{"start":"2023-01-01","end":"2023-01-02","reading_type":{"unit":"W"},"interval_reading":[]}}]}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				client, srv := newClient(t)
				srv.SetBody(enedistest.MeteringPath+"daily_consumption", body)

				_, err := client.FetchMeteringData(ctx, enedis.DailyConsumption, "tok", "1", time.Now(), time.Now())
				require.ErrorIs(t, err, apperrors.ErrMalformedUpstreamPayload)
			})
		}
	})

	t.Run("daily dates with offsets are accepted", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetBody(enedistest.MeteringPath+"daily_consumption",
			`{"usage_point":[{"meter_reading":{"usage_point_id":"1","start":"2023-01-01+01:00","end":"2023-01-03+01:00","reading_type":{"unit":"Wh","interval_length":86400},"interval_reading":[{"value":12,"rank":1},{"value":13,"rank":2}]}}]}`)

		payload, err := client.FetchMeteringData(ctx, enedis.DailyConsumption, "tok", "1", time.Now(), time.Now())
		require.NoError(t, err)
		start, err := enedis.ParseTimestamp(payload.UsagePoints[0].MeterReading.Start)
		require.NoError(t, err)
		require.True(t, start.Equal(time.Date(2022, 12, 31, 23, 0, 0, 0, time.UTC)))
	})
}

func TestParseMeteringKind(t *testing.T) {
	for _, kind := range enedis.MeteringKinds() {
		parsed, err := enedis.ParseMeteringKind(kind.String())
		require.NoError(t, err)
		require.Equal(t, kind, parsed)
		require.NotEmpty(t, parsed.StorageType())
	}
	require.Equal(t, "consumptionLoadCurve", enedis.ConsumptionLoadCurve.StorageType())
	require.Equal(t, "dailyProduction", enedis.DailyProduction.StorageType())

	_, err := enedis.ParseMeteringKind("dailyConsumption")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestCustomerEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("identity", func(t *testing.T) {
		client, srv := newClient(t)
		customer, err := client.FetchIdentity(ctx, "tok", enedistest.UsagePointID)
		require.NoError(t, err)
		require.Equal(t, enedistest.CustomerID, customer.CustomerID)
		require.Equal(t, "Sandra", customer.Identity.NaturalPerson.Firstname)
		require.Equal(t, "Thi", customer.Identity.NaturalPerson.Lastname)

		reqs := srv.Requests(enedistest.IdentityPath)
		require.Len(t, reqs, 1)
		require.Equal(t, enedistest.UsagePointID, reqs[0].Query.Get("usage_point_id"))
		require.Equal(t, "Bearer tok", reqs[0].Authorization)
	})

	t.Run("contact data", func(t *testing.T) {
		client, _ := newClient(t)
		customer, err := client.FetchContactData(ctx, "tok", enedistest.UsagePointID)
		require.NoError(t, err)
		require.Equal(t, "0245323491", customer.ContactData.Phone)
		require.Equal(t, "sandra.thi@wanadoo.fr", customer.ContactData.Email)
	})

	t.Run("contracts and addresses", func(t *testing.T) {
		client, _ := newClient(t)
		contracts, err := client.FetchContracts(ctx, "tok", enedistest.UsagePointID)
		require.NoError(t, err)
		require.Len(t, contracts.UsagePoints, 1)
		require.Equal(t, "C5", contracts.UsagePoints[0].UsagePoint.Contracts.Segment)

		addresses, err := client.FetchAddresses(ctx, "tok", enedistest.UsagePointID)
		require.NoError(t, err)
		require.Equal(t, "32400", addresses.UsagePoints[0].UsagePoint.UsagePointAddresses.PostalCode)
	})

	t.Run("empty envelope", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetBody(enedistest.IdentityPath, `[]`)
		_, err := client.FetchIdentity(ctx, "tok", enedistest.UsagePointID)
		require.ErrorIs(t, err, apperrors.ErrMalformedUpstreamPayload)
	})

	t.Run("identity without natural person", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetBody(enedistest.IdentityPath, `[{"customer":{"customer_id":"1","identity":{}}}]`)
		_, err := client.FetchIdentity(ctx, "tok", enedistest.UsagePointID)
		require.ErrorIs(t, err, apperrors.ErrMalformedUpstreamPayload)
	})

	t.Run("403", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetStatus(enedistest.ContactPath, http.StatusForbidden)
		_, err := client.FetchContactData(ctx, "tok", enedistest.UsagePointID)
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)
	})
}

func TestOAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("consent url", func(t *testing.T) {
		client, srv := newClient(t)
		u, err := url.Parse(client.AuthCodeURL("abc3"))
		require.NoError(t, err)

		require.Equal(t, srv.URL+"/oauth2/authorize", u.Scheme+"://"+u.Host+u.Path)
		q := u.Query()
		require.Equal(t, enedistest.ClientID, q.Get("client_id"))
		require.Equal(t, "abc3", q.Get("state"))
		require.Equal(t, "P6M", q.Get("duration"))
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, enedistest.RedirectURI, q.Get("redirect_uri"))
	})

	t.Run("code exchange", func(t *testing.T) {
		client, srv := newClient(t)
		grant, err := client.ExchangeCode(ctx, "the-code")
		require.NoError(t, err)
		require.Equal(t, enedistest.AccessToken, grant.AccessToken)
		require.Equal(t, enedistest.RefreshToken, grant.RefreshToken)
		require.Equal(t, enedistest.ExpiresIn, grant.ExpiresIn)
		require.Equal(t, enedistest.IssuedAt, grant.IssuedAt)
		require.True(t, grant.ExpiresAt().Equal(time.UnixMilli(enedistest.ExpiresIn*1000+enedistest.IssuedAt)))

		reqs := srv.Requests(enedistest.TokenPath)
		require.Len(t, reqs, 1)
		require.Equal(t, enedistest.RedirectURI, reqs[0].Query.Get("redirect_uri"))
		require.Equal(t, "the-code", reqs[0].Form.Get("code"))
		require.Equal(t, "authorization_code", reqs[0].Form.Get("grant_type"))
		require.Equal(t, enedistest.ClientID, reqs[0].Form.Get("client_id"))
		require.Equal(t, enedistest.ClientSecret, reqs[0].Form.Get("client_secret"))
	})

	t.Run("rejected exchange", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetStatus(enedistest.TokenPath, http.StatusForbidden)
		_, err := client.ExchangeCode(ctx, "the-code")
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)
	})

	t.Run("missing issued_at", func(t *testing.T) {
		client, srv := newClient(t)
		srv.SetBody(enedistest.TokenPath, `{"access_token":"a","token_type":"Bearer","expires_in":10}`)
		_, err := client.ExchangeCode(ctx, "the-code")
		require.ErrorIs(t, err, apperrors.ErrMalformedUpstreamPayload)
	})

	t.Run("unreadable token response", func(t *testing.T) {
		for name, body := range map[string]string{
			"no access_token": `{"token_type":"Bearer","expires_in":10,"issued_at":"1487075532179"}`,
			"not json":        `<html>maintenance</html>`,
		} {
			t.Run(name, func(t *testing.T) {
				client, srv := newClient(t)
				srv.SetBody(enedistest.TokenPath, body)
				_, err := client.ExchangeCode(ctx, "the-code")
				require.ErrorIs(t, err, apperrors.ErrMalformedUpstreamPayload)
				require.NotErrorIs(t, err, apperrors.ErrUpstreamFailure)
			})
		}
	})

	t.Run("unreachable token endpoint", func(t *testing.T) {
		client, srv := newClient(t)
		srv.Close()
		_, err := client.ExchangeCode(ctx, "the-code")
		require.ErrorIs(t, err, apperrors.ErrUpstreamFailure)
	})
}
