package customer

import (
	"context"
	"fmt"

	"github.com/jrsteele09/enedis-gateway/enedis"
	"golang.org/x/sync/errgroup"
)

// Upstream is the part of the Enedis client the profile needs.
type Upstream interface {
	FetchIdentity(ctx context.Context, accessToken, usagePointID string) (*enedis.Customer, error)
	FetchContactData(ctx context.Context, accessToken, usagePointID string) (*enedis.Customer, error)
	FetchContracts(ctx context.Context, accessToken, usagePointID string) (*enedis.Customer, error)
	FetchAddresses(ctx context.Context, accessToken, usagePointID string) (*enedis.Customer, error)
}

type TokenResolver interface {
	ResolveAccessToken(ctx context.Context, userID string) (string, error)
}

// Profile is the customer summary returned by /me.
type Profile struct {
	Firstname string                      `json:"firstname"`
	Lastname  string                      `json:"lastname"`
	Phone     string                      `json:"phone"`
	Email     string                      `json:"email"`
	Contracts []enedis.UsagePointEnvelope `json:"contracts"`
	Addresses []string                    `json:"addresses"`
}

type Service struct {
	upstream Upstream
	tokens   TokenResolver
}

func NewService(upstream Upstream, tokens TokenResolver) *Service {
	return &Service{upstream: upstream, tokens: tokens}
}

// GetProfile fetches identity, contact data, contracts and addresses concurrently.
// The first failure cancels the other calls and is returned.
func (s *Service) GetProfile(ctx context.Context, userID, usagePointID string) (*Profile, error) {
	accessToken, err := s.tokens.ResolveAccessToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[customer GetProfile] %w", err)
	}

	var identity, contact, contracts, addresses *enedis.Customer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		identity, err = s.upstream.FetchIdentity(gctx, accessToken, usagePointID)
		return err
	})
	g.Go(func() (err error) {
		contact, err = s.upstream.FetchContactData(gctx, accessToken, usagePointID)
		return err
	})
	g.Go(func() (err error) {
		contracts, err = s.upstream.FetchContracts(gctx, accessToken, usagePointID)
		return err
	})
	g.Go(func() (err error) {
		addresses, err = s.upstream.FetchAddresses(gctx, accessToken, usagePointID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("[customer GetProfile] %w", err)
	}

	profile := &Profile{
		Firstname: identity.Identity.NaturalPerson.Firstname,
		Lastname:  identity.Identity.NaturalPerson.Lastname,
		Phone:     contact.ContactData.Phone,
		Email:     contact.ContactData.Email,
		Contracts: contracts.UsagePoints,
		Addresses: make([]string, 0, len(addresses.UsagePoints)),
	}
	for _, up := range addresses.UsagePoints {
		profile.Addresses = append(profile.Addresses, FormatAddress(*up.UsagePoint.UsagePointAddresses))
	}
	return profile, nil
}

// FormatAddress renders "<street> \n <city> <postal code> \n <country>".
func FormatAddress(a enedis.Address) string {
	return fmt.Sprintf("%s \n %s %s \n %s", a.Street, a.City, a.PostalCode, a.Country)
}
