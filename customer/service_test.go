package customer_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/enedis-gateway/customer"
	"github.com/jrsteele09/enedis-gateway/enedis"
	"github.com/jrsteele09/enedis-gateway/enedis/enedistest"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/token"
	"github.com/jrsteele09/enedis-gateway/users"
	fakeuserrepo "github.com/jrsteele09/enedis-gateway/users/repofake"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*customer.Service, *enedistest.Server) {
	t.Helper()
	srv := enedistest.NewServer(t)

	repo := fakeuserrepo.NewFakeUserRepo()
	_, _, err := repo.FindOrCreate(context.Background(), &users.User{
		ID:           enedistest.CustomerID,
		UsagePointID: enedistest.UsagePointID,
		AccessToken:  "stored-token",
	})
	require.NoError(t, err)

	return customer.NewService(enedis.NewClient(srv.Config()), token.NewResolver(repo)), srv
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("composes the four customer endpoints", func(t *testing.T) {
		svc, srv := setup(t)

		profile, err := svc.GetProfile(ctx, enedistest.CustomerID, enedistest.UsagePointID)
		require.NoError(t, err)
		require.Equal(t, "Sandra", profile.Firstname)
		require.Equal(t, "Thi", profile.Lastname)
		require.Equal(t, "0245323491", profile.Phone)
		require.Equal(t, "sandra.thi@wanadoo.fr", profile.Email)
		require.Len(t, profile.Contracts, 1)
		require.Equal(t, "CARD-S", profile.Contracts[0].UsagePoint.Contracts.ContractType)
		require.Equal(t, []string{"2 bis rue du capitaine Flam \n Maulichères 32400 \n France"}, profile.Addresses)

		for _, path := range []string{enedistest.IdentityPath, enedistest.ContactPath, enedistest.ContractsPath, enedistest.AddressesPath} {
			reqs := srv.Requests(path)
			require.Len(t, reqs, 1, path)
			require.Equal(t, "Bearer stored-token", reqs[0].Authorization)
		}
	})

	t.Run("any failure abandons the profile", func(t *testing.T) {
		svc, srv := setup(t)
		srv.SetStatus(enedistest.ContractsPath, http.StatusForbidden)

		_, err := svc.GetProfile(ctx, enedistest.CustomerID, enedistest.UsagePointID)
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, srv := setup(t)
		_, err := svc.GetProfile(ctx, "nobody", enedistest.UsagePointID)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		require.Equal(t, 0, srv.TotalHits())
	})
}

func TestFormatAddress(t *testing.T) {
	got := customer.FormatAddress(enedis.Address{Street: "1 rue A", City: "Paris", PostalCode: "75001", Country: "France"})
	require.Equal(t, "1 rue A \n Paris 75001 \n France", got)
}
