package plaid

import (
	"context"
	"fmt"

	"github.com/plaid/plaid-go/v27/plaid"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

const institutionsPageSize = 100

// Client adapts the Plaid API to the BankingProvider port.
type Client struct {
	api         *plaid.APIClient
	countryCode plaid.CountryCode
}

// NewClient creates a Plaid client for the given credentials. env is one of
// "sandbox" or "production"; anything else falls back to sandbox.
func NewClient(clientID, secret, env string) *Client {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	environment := plaid.Sandbox
	if env == "production" {
		environment = plaid.Production
	}
	configuration.UseEnvironment(environment)

	return &Client{
		api:         plaid.NewAPIClient(configuration),
		countryCode: plaid.COUNTRYCODE_US,
	}
}

// CreateLinkToken starts a Link flow scoped to the given user.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{ClientUserId: userID}
	request := plaid.NewLinkTokenCreateRequest("SpendBox", "en", []plaid.CountryCode{c.countryCode}, user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("link token create failed: %w", err)
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken swaps the Link public token for an access token and
// fetches the accounts it grants access to.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, []models.LinkedAccount, error) {
	exchangeReq := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	exchangeResp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).
		ItemPublicTokenExchangeRequest(*exchangeReq).Execute()
	if err != nil {
		return "", nil, fmt.Errorf("public token exchange failed: %w", err)
	}
	accessToken := exchangeResp.GetAccessToken()

	accountsReq := plaid.NewAccountsGetRequest(accessToken)
	accountsResp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*accountsReq).Execute()
	if err != nil {
		return "", nil, fmt.Errorf("accounts fetch failed: %w", err)
	}

	institutionName := c.institutionName(ctx, accountsResp.GetItem().GetInstitutionId())

	accounts := make([]models.LinkedAccount, 0, len(accountsResp.GetAccounts()))
	for _, a := range accountsResp.GetAccounts() {
		accounts = append(accounts, models.LinkedAccount{
			AccountID:       a.GetAccountId(),
			InstitutionName: institutionName,
			AccountType:     string(a.GetType()),
			AccountName:     a.GetName(),
			Mask:            a.GetMask(),
		})
	}
	return accessToken, accounts, nil
}

// institutionName resolves an institution ID to its display name. Lookup
// failure is not fatal, the ID works as a stand-in.
func (c *Client) institutionName(ctx context.Context, institutionID string) string {
	if institutionID == "" {
		return ""
	}
	req := plaid.NewInstitutionsGetByIdRequest(institutionID, []plaid.CountryCode{c.countryCode})
	resp, _, err := c.api.PlaidApi.InstitutionsGetById(ctx).InstitutionsGetByIdRequest(*req).Execute()
	if err != nil {
		return institutionID
	}
	return resp.GetInstitution().Name
}

// ListInstitutions returns the first page of institutions for the configured country.
func (c *Client) ListInstitutions(ctx context.Context) ([]core.Institution, error) {
	req := plaid.NewInstitutionsGetRequest(institutionsPageSize, 0, []plaid.CountryCode{c.countryCode})
	resp, _, err := c.api.PlaidApi.InstitutionsGet(ctx).InstitutionsGetRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("institutions fetch failed: %w", err)
	}

	institutions := make([]core.Institution, 0, len(resp.GetInstitutions()))
	for _, inst := range resp.GetInstitutions() {
		institutions = append(institutions, core.Institution{
			ID:   inst.GetInstitutionId(),
			Name: inst.GetName(),
		})
	}
	return institutions, nil
}
