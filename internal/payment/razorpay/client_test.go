package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akseline/store-backend-go/internal/upstream"
)

func TestCreateOrder(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "order_ext_1",
			"amount": gotBody["amount"],
			"status": "created",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_id", "key_secret", srv.Client())

	id, err := c.CreateOrder(context.Background(), 10050, "INR", "txn_order-1")
	require.NoError(t, err)
	require.Equal(t, "order_ext_1", id)

	require.Equal(t, "Basic "+basicAuth("key_id", "key_secret"), gotAuth)
	require.Equal(t, float64(10050), gotBody["amount"])
	require.Equal(t, "INR", gotBody["currency"])
	require.Equal(t, float64(1), gotBody["payment_capture"])
}

func TestCreateOrderErrorClassification(t *testing.T) {
	tests := map[string]struct {
		status        int
		wantTransient bool
	}{
		"bad request is permanent":     {http.StatusBadRequest, false},
		"unauthorized is permanent":    {http.StatusUnauthorized, false},
		"server error is transient":    {http.StatusInternalServerError, true},
		"gateway timeout is transient": {http.StatusGatewayTimeout, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", "s", srv.Client())

			_, err := c.CreateOrder(context.Background(), 100, "INR", "txn_x")
			require.Error(t, err)
			require.Equal(t, tt.wantTransient, upstream.IsTransient(err))
		})
	}
}

func TestCreateOrderNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "k", "s", http.DefaultClient)

	_, err := c.CreateOrder(context.Background(), 100, "INR", "txn_x")
	require.Error(t, err)
	require.True(t, upstream.IsTransient(err))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("http://localhost", "key_id", "key_secret", http.DefaultClient)

	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_ext_1|pay_1"))
	valid := hex.EncodeToString(mac.Sum(nil))

	require.True(t, c.VerifySignature("order_ext_1", "pay_1", valid))
	require.False(t, c.VerifySignature("order_ext_1", "pay_1", "deadbeef"))
	require.False(t, c.VerifySignature("order_ext_2", "pay_1", valid))
	require.False(t, c.VerifySignature("order_ext_1", "pay_1", ""))
}
