package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPending() *domain.PendingOrder {
	return &domain.PendingOrder{
		TranID: "tran-1",
		Items: []domain.OrderLine{
			{ProductID: "prod-1", Name: "Panjabi", Quantity: 3, UnitPrice: 500},
		},
		Shipping: domain.ShippingAddress{
			Name:        "Rahim Uddin",
			Phone:       "01711111111",
			FullAddress: "House 12, Road 5, Dhanmondi",
			District:    "Dhaka",
		},
		Totals: domain.Totals{Total: 1500},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		StoreID:     "teststore",
		StorePasswd: "secret",
		AppURL:      "https://shop.example",
		APIURL:      server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestCreateSession_Success(t *testing.T) {
	var form map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{
			"status":         "SUCCESS",
			"GatewayPageURL": "https://sandbox.sslcommerz.com/EasyCheckOut/abc123",
		})
	})

	url, err := client.CreateSession(context.Background(), testPending())

	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.sslcommerz.com/EasyCheckOut/abc123", url)

	assert.Equal(t, "tran-1", form["tran_id"][0])
	assert.Equal(t, "1500.00", form["total_amount"][0])
	assert.Equal(t, "BDT", form["currency"][0])
	assert.Equal(t, "https://shop.example/payment/success", form["success_url"][0])
	assert.Equal(t, "https://shop.example/payment/ipn", form["ipn_url"][0])
	assert.Equal(t, "Rahim Uddin", form["cus_name"][0])
}

func TestCreateSession_ProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":       "FAILED",
			"failedreason": "store credential mismatch",
		})
	})

	_, err := client.CreateSession(context.Background(), testPending())

	var gatewayErr *gateway.Error
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, "sslcommerz", gatewayErr.Provider)
	assert.Equal(t, "store credential mismatch", gatewayErr.Reason)
}

func TestCreateSession_MissingGatewayURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
	})

	_, err := client.CreateSession(context.Background(), testPending())

	var gatewayErr *gateway.Error
	require.ErrorAs(t, err, &gatewayErr)
}

func TestCreateSession_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateSession(ctx, testPending())

	var gatewayErr *gateway.Error
	require.ErrorAs(t, err, &gatewayErr)
	assert.True(t, errors.Is(err, context.Canceled))
}
