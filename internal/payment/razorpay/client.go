// Package razorpay implements the payment.Gateway contract against the
// Razorpay REST API.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"

	"github.com/akseline/store-backend-go/internal/upstream"
)

type Client struct {
	base      *upstream.Client
	keyID     string
	keySecret string
}

func NewClient(baseURL, keyID, keySecret string, httpClient *http.Client) *Client {
	return &Client{
		base:      upstream.NewClient("razorpay", baseURL, httpClient),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"` // minor units (paise)
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order with the gateway and returns its id.
// Amount is already in minor units; capture is automatic.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string) (string, error) {
	req := createOrderRequest{
		Amount:         amountMinorUnits,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	}

	headers := http.Header{}
	headers.Set("Authorization", "Basic "+basicAuth(c.keyID, c.keySecret))

	var resp createOrderResponse
	if err := c.base.DoJSON(ctx, http.MethodPost, "/v1/orders", headers, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// VerifySignature recomputes the expected HMAC-SHA256 of
// "<orderID>|<paymentID>" under the key secret and compares it in constant
// time against the signature the gateway handed to the client.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}
