package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/auth"
	"github.com/pazarnet/discovery/internal/boost"
	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/ranking"
	"github.com/pazarnet/discovery/internal/trust"
)

// fixture is a fully wired API over in-memory stores.
type fixture struct {
	mux      *http.ServeMux
	jwt      *auth.JWTService
	listings *listing.InMemoryRepository
	trust    *trust.InMemoryProvider
	boosts   *boost.InMemoryStore
	auditor  *audit.InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	listings := listing.NewInMemoryRepository()
	trustProvider := trust.NewInMemoryProvider()
	auditor := audit.NewInMemoryRepository()
	boosts := boost.NewInMemoryStore(auditor)

	engine := ranking.NewEngine(listings, trustProvider, boosts, ranking.Options{})
	jwtSvc := auth.NewJWTService("test-secret")

	mux := Routes(
		jwtSvc,
		NewDiscoveryHandlers(engine),
		NewBoostHandlers(boosts, auditor),
		nil,
		NewHealthHandlers(nil, nil),
	)

	return &fixture{
		mux:      mux,
		jwt:      jwtSvc,
		listings: listings,
		trust:    trustProvider,
		boosts:   boosts,
		auditor:  auditor,
	}
}

// token mints a bearer token for the tenant with the given role.
func (f *fixture) token(t *testing.T, tenantID, role string) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(tenantID, role)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	return token
}

// do runs one request through the mux. body may be nil.
func (f *fixture) do(t *testing.T, method, target, bearer string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// addListing seeds an eligible NETWORK/ACTIVE listing with sane defaults.
func (f *fixture) addListing(id, sellerID string, mutate func(*listing.Listing)) {
	l := listing.Listing{
		ID:              id,
		GlobalProductID: "gp-" + id,
		SellerID:        sellerID,
		Title:           "Listing " + id,
		CategoryID:      "cat-1",
		UnitPrice:       100,
		Currency:        "TRY",
		AvailableQty:    50,
		MinOrderQty:     1,
		LeadTimeDays:    2,
		Visibility:      listing.VisibilityNetwork,
		Status:          listing.StatusActive,
		CreatedAt:       time.Now().UTC().Add(-60 * 24 * time.Hour),
	}
	if mutate != nil {
		mutate(&l)
	}
	f.listings.Put(l)
}

// decodeError unmarshals the standard error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not an error envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}
