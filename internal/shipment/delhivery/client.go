// Package delhivery implements the shipment.Carrier contract against the
// Delhivery REST API.
package delhivery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akseline/store-backend-go/internal/shipment"
	"github.com/akseline/store-backend-go/internal/upstream"
)

type Client struct {
	base  *upstream.Client
	token string
}

func NewClient(baseURL, apiToken string, httpClient *http.Client) *Client {
	return &Client{
		base:  upstream.NewClient("delhivery", baseURL, httpClient),
		token: apiToken,
	}
}

type createShipmentRequest struct {
	OrderID string `json:"order"`
	Name    string `json:"name"`
	Address string `json:"add"`
	City    string `json:"city"`
	Pin     string `json:"pin"`
	Phone   string `json:"phone"`
}

type createShipmentResponse struct {
	Waybill string `json:"waybill"`
	Success bool   `json:"success"`
	Remarks string `json:"rmk"`
}

// CreateShipment manifests the parcel with the carrier and returns the
// assigned waybill, which becomes our tracking id.
func (c *Client) CreateShipment(ctx context.Context, m shipment.Manifest) (string, error) {
	req := createShipmentRequest{
		OrderID: m.OrderID,
		Name:    m.Name,
		Address: m.Address,
		City:    m.City,
		Pin:     m.Zip,
		Phone:   m.Phone,
	}

	var resp createShipmentResponse
	if err := c.base.DoJSON(ctx, http.MethodPost, "/api/cmu/create.json", c.authHeaders(), req, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Waybill == "" {
		return "", fmt.Errorf("delhivery rejected manifest for order %s: %s", m.OrderID, resp.Remarks)
	}
	return resp.Waybill, nil
}

type trackResponse struct {
	ShipmentData []struct {
		Shipment struct {
			Status struct {
				Status string `json:"Status"`
			} `json:"Status"`
		} `json:"Shipment"`
	} `json:"ShipmentData"`
}

// Track returns the carrier's current status text for a waybill.
func (c *Client) Track(ctx context.Context, trackingID string) (string, error) {
	var resp trackResponse
	path := "/api/v1/packages/json/?waybill=" + trackingID
	if err := c.base.DoJSON(ctx, http.MethodGet, path, c.authHeaders(), nil, &resp); err != nil {
		return "", err
	}
	if len(resp.ShipmentData) == 0 {
		return "", fmt.Errorf("delhivery has no shipment for waybill %s", trackingID)
	}
	return resp.ShipmentData[0].Shipment.Status.Status, nil
}

func (c *Client) authHeaders() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Token "+c.token)
	return h
}
