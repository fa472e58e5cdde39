package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) Token(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func TestVatNumberValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vatnumbers/DE123456789", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	}))
	defer srv.Close()

	sut, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	valid, err := sut.VatNumberValid(context.Background(), "DE123456789")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCreateOrder_SendsBody(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Order{ID: "order-1", Email: got.Email})
	}))
	defer srv.Close()

	sut, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	order, err := sut.CreateOrder(context.Background(), &OrderRequest{
		Email:             "a@b.co",
		ShippingAddressID: "addr-1",
		Currency:          "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "a@b.co", got.Email)
	assert.Equal(t, "addr-1", got.ShippingAddressID)
}

func TestOrderHistory_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]Order{{ID: "order-1"}})
	}))
	defer srv.Close()

	tokens := &staticTokens{token: "tok-123"}
	sut, err := NewClient(srv.URL, tokens)
	require.NoError(t, err)

	orders, err := sut.OrderHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].ID)
	assert.Equal(t, 1, tokens.calls)
}

func TestOrderHistory_TokenFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued when the token fetch fails")
	}))
	defer srv.Close()

	sut, err := NewClient(srv.URL, &staticTokens{err: fmt.Errorf("session expired")})
	require.NoError(t, err)

	_, err = sut.OrderHistory(context.Background())
	require.ErrorContains(t, err, "session expired")
}

func TestDo_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"msg": "no pricing for item"})
	}))
	defer srv.Close()

	sut, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = sut.CreateOrder(context.Background(), &OrderRequest{Email: "a@b.co"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "no pricing for item", apiErr.Message)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("", nil)
	require.ErrorIs(t, err, ErrNoAPIURL)
}
