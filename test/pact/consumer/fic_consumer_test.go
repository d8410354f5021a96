//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
	credentialsdomain "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
	pacttest "github.com/Apurer/storelink-fic-sync/test/pact"
)

type staticCredentials credentialsdomain.Credential

func (s staticCredentials) Load(context.Context) (credentialsdomain.Credential, error) {
	return credentialsdomain.Credential(s), nil
}

func newClient(t *testing.T, config pactconsumer.MockServerConfig, key string) *fic.Client {
	t.Helper()
	client, err := fic.New(fmt.Sprintf("http://%s:%d", config.Host, config.Port),
		staticCredentials{APIKey: key, CompanyID: pacttest.CompanyID},
		fic.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	require.NoError(t, err)
	return client
}

func exampleDocument() fic.Document {
	day := openapi_types.Date{Time: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)}
	return fic.Document{
		Type:       "invoice",
		Entity:     fic.EntityRef{ID: pacttest.ExistingClientID},
		Date:       day,
		Number:     1001,
		Numeration: "",
		Subject:    "Ordine #1001",
		Items: []fic.DocumentItem{
			{Name: "Widget A", Qty: 3, NetPrice: 10, VAT: fic.VAT{ID: 0, Value: 22}},
		},
		PaymentsList: []fic.Payment{{
			Amount:         30,
			DueDate:        day,
			PaymentTerms:   fic.PaymentTerms{Days: 0, Type: "standard"},
			Status:         fic.PaymentNotPaid,
			PaymentAccount: fic.PaymentAccount{ID: 3, Name: "Bonifico bancario"},
		}},
	}
}

// asJSONMap turns v into the exact body the client sends.
func asJSONMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestAccountingAPIContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	bearer := matchers.Term("Bearer "+pacttest.ValidKey, `^Bearer [A-Za-z0-9_.\-]{30,}$`)
	companyPath := fmt.Sprintf("/c/%d", pacttest.CompanyID)
	product := pacttest.ExampleProduct()

	pact.AddInteraction().
		Given(pacttest.StateProductsExist).
		UponReceiving("a request for the first product page").
		WithRequest(http.MethodGet, companyPath+"/products", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
			b.Query("page", matchers.S("1"))
			b.Query("per_page", matchers.S("50"))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.Regex("application/json", `application\/json.*`))
			b.JSONBody(matchers.Map{
				"data": matchers.EachLike(matchers.Map{
					"id":        matchers.Like(product["id"]),
					"name":      matchers.Like(product["name"]),
					"code":      matchers.Like(product["code"]),
					"net_price": matchers.Like(product["net_price"]),
					"category":  matchers.Like(product["category"]),
					"stock":     matchers.Like(product["stock"]),
				}, 1),
				"current_page": matchers.Like(1),
				"last_page":    matchers.Like(1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateClientExists).
		UponReceiving("a search for a client by email").
		WithRequest(http.MethodGet, companyPath+"/entities/clients", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
			b.Query("q", matchers.S(pacttest.ClientEmail))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(matchers.Map{
				"data": matchers.EachLike(matchers.Map{
					"id":    matchers.Like(pacttest.ExistingClientID),
					"name":  matchers.Like("Mario Rossi"),
					"email": matchers.S(pacttest.ClientEmail),
				}, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateCanIssue).
		UponReceiving("a request to issue an invoice").
		WithRequest(http.MethodPost, companyPath+"/issued_documents", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"data": asJSONMap(t, exampleDocument())})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(matchers.Map{
				"data": matchers.Map{"id": matchers.Like(pacttest.IssuedDocumentID)},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateKeyRevoked).
		UponReceiving("a connection test with a revoked key").
		WithRequest(http.MethodGet, companyPath+"/products", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", matchers.S("Bearer "+pacttest.RevokedKey))
			b.Query("per_page", matchers.S("1"))
		}).
		WillRespondWith(http.StatusUnauthorized, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(matchers.Map{
				"error": matchers.Map{"message": matchers.Like("Unauthorized")},
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client := newClient(t, config, pacttest.ValidKey)

		page, err := client.GetProducts(ctx, 1, 50)
		if err != nil {
			return fmt.Errorf("get products: %w", err)
		}
		if len(page.Data) == 0 || page.Data[0].ID == 0 || page.HasMore() {
			return fmt.Errorf("unexpected product page %+v", page)
		}

		found, err := client.FindClientByEmail(ctx, pacttest.ClientEmail)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		if found == nil || found.ID == 0 {
			return fmt.Errorf("expected client %s to be found", pacttest.ClientEmail)
		}

		issued, err := client.CreateDocument(ctx, exampleDocument())
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if issued.ID == 0 {
			return fmt.Errorf("expected issued document id")
		}

		revoked := newClient(t, config, pacttest.RevokedKey)
		err = revoked.TestConnection(ctx)
		if errkind.Of(err) != errkind.Authentication {
			return fmt.Errorf("expected authentication error, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}
