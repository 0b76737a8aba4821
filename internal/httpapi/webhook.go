package httpapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"
)

// validWebhookStatuses enumerates the delivery states external services
// may report.
var validWebhookStatuses = []string{"sent", "delivered", "bounced", "failed", "opened", "clicked"}

type webhookRequest struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type webhookResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Webhook handles POST /api/webhook: delivery status notifications from
// external services. Events are validated and acknowledged; durable event
// storage is up to the deployment.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, `Field "messageId" is required`)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, `Field "status" is required`)
		return
	}
	if !slices.Contains(validWebhookStatuses, req.Status) {
		writeError(w, http.StatusBadRequest,
			"Invalid status. Must be one of: "+strings.Join(validWebhookStatuses, ", "))
		return
	}

	h.logger.InfoContext(r.Context(), "webhook event received",
		"message_id", req.MessageID,
		"status", req.Status)

	writeJSON(w, http.StatusOK, webhookResponse{
		Success:   true,
		Message:   "Webhook received",
		MessageID: req.MessageID,
		Status:    req.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// WebhookVerify handles GET /api/webhook: the challenge echo some webhook
// providers require before they start delivering events.
func (h *Handler) WebhookVerify(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	token := r.URL.Query().Get("token")

	if challenge != "" && token != "" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": challenge})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Webhook endpoint is active"})
}
