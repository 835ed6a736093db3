package http

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
)

const (
	confirmationPath = "/order/confirmation"
	failurePath      = "/order/failed"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// All payment failures funnel to one failure page with a short, sanitized
// reason; all successes funnel to one confirmation page keyed by order id.
func redirectToConfirmation(w http.ResponseWriter, r *http.Request, orderID string) {
	http.Redirect(w, r, confirmationPath+"?orderId="+url.QueryEscape(orderID), http.StatusSeeOther)
}

func redirectToFailure(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, failurePath+"?reason="+url.QueryEscape(reason), http.StatusSeeOther)
}
