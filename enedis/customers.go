package enedis

import (
	"context"
	"fmt"
	"net/url"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
)

// Customer is the "customer" object shared by the four customer endpoints. Each endpoint
// fills a different part of it.
type Customer struct {
	CustomerID  string               `json:"customer_id"`
	Identity    *Identity            `json:"identity,omitempty"`
	ContactData *ContactData         `json:"contact_data,omitempty"`
	UsagePoints []UsagePointEnvelope `json:"usage_points,omitempty"`
}

type customerEnvelope struct {
	Customer *Customer `json:"customer"`
}

type Identity struct {
	NaturalPerson *NaturalPerson `json:"natural_person"`
}

type NaturalPerson struct {
	Title     string `json:"title,omitempty"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type ContactData struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type UsagePointEnvelope struct {
	UsagePoint UsagePoint `json:"usage_point"`
}

type UsagePoint struct {
	UsagePointID        string     `json:"usage_point_id"`
	UsagePointStatus    string     `json:"usage_point_status,omitempty"`
	MeterType           string     `json:"meter_type,omitempty"`
	Contracts           *Contracts `json:"contracts,omitempty"`
	UsagePointAddresses *Address   `json:"usage_point_addresses,omitempty"`
}

type Contracts struct {
	Segment                          string `json:"segment,omitempty"`
	SubscribedPower                  string `json:"subscribed_power,omitempty"`
	LastActivationDate               string `json:"last_activation_date,omitempty"`
	DistributionTariff               string `json:"distribution_tariff,omitempty"`
	LastDistributionTariffChangeDate string `json:"last_distribution_tariff_change_date,omitempty"`
	OffpeakHours                     string `json:"offpeak_hours,omitempty"`
	ContractType                     string `json:"contract_type,omitempty"`
	ContractStatus                   string `json:"contract_status,omitempty"`
}

type Address struct {
	Street     string     `json:"street"`
	Locality   string     `json:"locality,omitempty"`
	PostalCode string     `json:"postal_code"`
	InseeCode  string     `json:"insee_code,omitempty"`
	City       string     `json:"city"`
	Country    string     `json:"country"`
	GeoPoints  *GeoPoints `json:"geo_points,omitempty"`
}

type GeoPoints struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Altitude  string `json:"altitude"`
}

const (
	endpointIdentity  = "identity"
	endpointContact   = "contact_data"
	endpointContracts = "contracts"
	endpointAddresses = "addresses"
)

var customerPaths = map[string]string{
	endpointIdentity:  "/v3/customers/identity",
	endpointContact:   "/v3/customers/contact_data",
	endpointContracts: "/v3/customers/usage_points/contracts",
	endpointAddresses: "/v3/customers/usage_points/addresses",
}

// FetchIdentity returns the customer id and natural person of the consenting user.
func (c *Client) FetchIdentity(ctx context.Context, accessToken, usagePointID string) (*Customer, error) {
	return c.fetchCustomer(ctx, endpointIdentity, accessToken, usagePointID, func(cu *Customer) error {
		if cu.CustomerID == "" {
			return apperrors.Malformed("identity has no customer_id")
		}
		if cu.Identity == nil || cu.Identity.NaturalPerson == nil {
			return apperrors.Malformed("identity has no natural_person")
		}
		return nil
	})
}

func (c *Client) FetchContactData(ctx context.Context, accessToken, usagePointID string) (*Customer, error) {
	return c.fetchCustomer(ctx, endpointContact, accessToken, usagePointID, func(cu *Customer) error {
		if cu.ContactData == nil {
			return apperrors.Malformed("customer has no contact_data")
		}
		return nil
	})
}

func (c *Client) FetchContracts(ctx context.Context, accessToken, usagePointID string) (*Customer, error) {
	return c.fetchCustomer(ctx, endpointContracts, accessToken, usagePointID, func(cu *Customer) error {
		if cu.UsagePoints == nil {
			return apperrors.Malformed("contracts have no usage_points")
		}
		return nil
	})
}

func (c *Client) FetchAddresses(ctx context.Context, accessToken, usagePointID string) (*Customer, error) {
	return c.fetchCustomer(ctx, endpointAddresses, accessToken, usagePointID, func(cu *Customer) error {
		if cu.UsagePoints == nil {
			return apperrors.Malformed("addresses have no usage_points")
		}
		for i, up := range cu.UsagePoints {
			if up.UsagePoint.UsagePointAddresses == nil {
				return apperrors.Malformed("usage_points[%d] has no usage_point_addresses", i)
			}
		}
		return nil
	})
}

// fetchCustomer unwraps the [{"customer": {...}}] envelope and validates the result.
func (c *Client) fetchCustomer(ctx context.Context, endpoint, accessToken, usagePointID string, validate func(*Customer) error) (*Customer, error) {
	query := url.Values{}
	query.Set("usage_point_id", usagePointID)

	var envelopes []customerEnvelope
	if err := c.getJSON(ctx, endpoint, customerPaths[endpoint], query, accessToken, &envelopes); err != nil {
		return nil, err
	}
	if len(envelopes) == 0 || envelopes[0].Customer == nil {
		return nil, fmt.Errorf("[enedis %s] %w", endpoint, apperrors.Malformed("empty customer envelope"))
	}

	customer := envelopes[0].Customer
	if err := validate(customer); err != nil {
		return nil, fmt.Errorf("[enedis %s] %w", endpoint, err)
	}
	return customer, nil
}
