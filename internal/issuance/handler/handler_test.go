package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogStore "smartration/internal/catalog/store"
	"smartration/internal/distribution"
	distributionStore "smartration/internal/distribution/store"
	"smartration/internal/issuance/service"
	jwttoken "smartration/internal/jwt_token"
	"smartration/pkg/testutil"
)

type fixture struct {
	router http.Handler
	jwt    *jwttoken.JWTService
}

func newIssuanceRouter(t *testing.T) *fixture {
	t.Helper()
	catalog := catalogStore.NewInMemory()
	require.NoError(t, catalogStore.SeedReferenceCatalog(context.Background(), catalog))
	jwt := jwttoken.NewJWTService("handler-key", "smartration")
	svc := service.New(catalog, distribution.NewLedger(distributionStore.NewInMemory()), jwttoken.NewSessionVerifier(jwt))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return &fixture{router: r, jwt: jwt}
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	token, err := f.jwt.GenerateAdminToken("admin@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func withMonth(req *http.Request, month time.Month) *http.Request {
	return testutil.WithRequestTime(req, time.Date(2024, month, 3, 9, 0, 0, 0, time.UTC))
}

func issueBody(card string) map[string]any {
	return map[string]any{
		"cardNumber": card,
		"products": []map[string]any{
			{"productName": "Rice", "unit": "kg", "quantity": 20},
			{"productName": "Kerosene", "unit": "litre", "quantity": "1"},
		},
	}
}

func TestLookupRoutes(t *testing.T) {
	f := newIssuanceRouter(t)

	testutil.Given(t, "a seeded card searched by path", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/ration/search/RC001"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[EntitlementResponse](t, rr)
		assert.Equal(t, "John Doe", resp.HolderName)
		assert.Equal(t, 4, resp.FamilyMembers)
		require.Len(t, resp.Products, 6)
		assert.Equal(t, LineResponse{ProductName: "Rice", Unit: "kg", Quantity: 20}, resp.Products[0])
		assert.Equal(t, LineResponse{ProductName: "Salt", Unit: "kg", Quantity: 2}, resp.Products[3])
		assert.Equal(t, LineResponse{ProductName: "Kerosene", Unit: "litre", Quantity: 1}, resp.Products[5])
	})

	testutil.Given(t, "a seeded card checked by body", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/check-card", map[string]string{"cardNumber": " RC004 "})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "holderName", "Maria Garcia")
	})

	testutil.Given(t, "the same card through both routes", func(t *testing.T) {
		byPath := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/ration/search/RC002"))
		byBody := testutil.DoRequest(f.router,
			testutil.NewJSONRequest(t, http.MethodPost, "/api/check-card", map[string]string{"cardNumber": "RC002"}))
		testutil.AssertStatusOK(t, byPath)
		testutil.AssertStatusOK(t, byBody)
		assert.JSONEq(t, byPath.Body.String(), byBody.Body.String())

		raw := testutil.UnmarshalResponse[map[string]any](t, byBody)
		assert.NotContains(t, *raw, "name")
		products, ok := (*raw)["products"].([]any)
		require.True(t, ok)
		require.NotEmpty(t, products)
		line, ok := products[0].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, line, "productName")
		assert.NotContains(t, line, "name")
	})

	testutil.Given(t, "an unknown card", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/ration/search/RC999"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	testutil.Given(t, "a check without card number", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/check-card", map[string]string{})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestIssueAndReconcile(t *testing.T) {
	f := newIssuanceRouter(t)
	token := f.adminToken(t)

	req := withMonth(testutil.NewJSONRequest(t, http.MethodPost, "/api/issue-ration", issueBody("RC001")), time.May)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	issued := testutil.UnmarshalResponse[IssueRationResponse](t, rr)
	require.NotEqual(t, uuid.Nil, issued.ID)
	assert.Equal(t, "2024-05", issued.Month)

	testutil.When(t, "the same card is issued again this month", func(t *testing.T) {
		req := withMonth(testutil.NewJSONRequest(t, http.MethodPost, "/api/issue-ration", issueBody("RC001")), time.May)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "already_issued")
	})

	testutil.When(t, "the issue body has no products", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/issue-ration", map[string]any{"cardNumber": "RC002", "products": []any{}})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	testutil.When(t, "distributions are listed without a token", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/distributions"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.When(t, "distributions are listed with a token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/distributions")
		testutil.WithBearer(req, token)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusOK(t, rr)
		list := testutil.UnmarshalResponse[[]DistributionResponse](t, rr)
		require.Len(t, *list, 1)
		assert.Equal(t, issued.ID, (*list)[0].ID)
		assert.False(t, (*list)[0].Completed)
		assert.Equal(t, 20.0, (*list)[0].Products[0].Quantity)
	})

	testutil.When(t, "the distribution is completed twice and uncompleted", func(t *testing.T) {
		for _, step := range []struct {
			path string
			want bool
		}{
			{"/complete", true},
			{"/complete", true},
			{"/uncomplete", false},
		} {
			req := testutil.NewRequest(t, http.MethodPatch, "/api/distributions/"+issued.ID.String()+step.path)
			testutil.WithBearer(req, token)
			rr := testutil.DoRequest(f.router, req)
			testutil.AssertStatusOK(t, rr)
			d := testutil.UnmarshalResponse[DistributionResponse](t, rr)
			assert.Equal(t, step.want, d.Completed)
		}
	})

	testutil.When(t, "reconciling without a token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPatch, "/api/distributions/"+issued.ID.String()+"/complete")
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.When(t, "reconciling a malformed or unknown id", func(t *testing.T) {
		for _, id := range []string{"not-a-uuid", uuid.NewString()} {
			req := testutil.NewRequest(t, http.MethodPatch, "/api/distributions/"+id+"/complete")
			testutil.WithBearer(req, token)
			rr := testutil.DoRequest(f.router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		}
	})
}
