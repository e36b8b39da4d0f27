package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bookify-backend/api/responses"
	"github.com/angelmondragon/bookify-backend/pkg/config"
)

// CheckoutConfigResponse is what the web client needs to open Razorpay checkout.
// Only the public key id is exposed; the key secret stays server side.
type CheckoutConfigResponse struct {
	KeyID    string `json:"keyId"`
	Currency string `json:"currency"`
	LiveMode bool   `json:"liveMode"`
}

func CheckoutConfig(cfg config.RazorpayConfig) http.HandlerFunc {
	body := CheckoutConfigResponse{
		KeyID:    cfg.KeyID,
		Currency: cfg.Currency,
		LiveMode: strings.HasPrefix(cfg.KeyID, "rzp_live_"),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		responses.WriteSuccess(w, body)
	}
}
