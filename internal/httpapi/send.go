package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/mailer"
	"github.com/mailward/mailward/pkg/mailer/gmail"
)

// Handler serves the mail API endpoints.
type Handler struct {
	mailer *mailer.Mailer
	logger *slog.Logger
}

// NewHandler creates the API handler. A nil logger falls back to
// slog.Default.
func NewHandler(m *mailer.Mailer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mailer: m, logger: logger}
}

// attachmentInfo summarizes resolved attachments in the success response.
type attachmentInfo struct {
	Count     int   `json:"count"`
	TotalSize int64 `json:"totalSize"`
}

type sendResponse struct {
	Success     bool            `json:"success"`
	MessageID   string          `json:"messageId"`
	Message     string          `json:"message"`
	Attachments *attachmentInfo `json:"attachments,omitempty"`
}

// Send handles POST /api/sendmail.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req mailer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	result, err := h.mailer.Send(r.Context(), &req)
	if err != nil {
		h.writeSendError(w, r, err)
		return
	}

	resp := sendResponse{
		Success:   true,
		MessageID: result.MessageID,
		Message:   "Email sent successfully",
	}
	if result.AttachmentCount > 0 {
		resp.Attachments = &attachmentInfo{
			Count:     result.AttachmentCount,
			TotalSize: result.AttachmentBytes,
		}
	}

	h.logger.InfoContext(r.Context(), "email sent",
		"message_id", result.MessageID,
		"recipients", len(req.To),
		"attachments", result.AttachmentCount)

	writeJSON(w, http.StatusOK, resp)
}

// writeSendError maps pipeline errors to HTTP statuses. Validation and
// resolution failures are the caller's fault; size violations get 413;
// provider-side auth and delivery failures surface as 502.
func (h *Handler) writeSendError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *mailer.ValidationError
		invalidErr    *attachment.InvalidError
		resolutionErr *mailer.ResolutionError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   validationErr.Error(),
			Invalid: validationErr.Invalid,
		})
	case errors.As(err, &invalidErr):
		// Echo filenames only, never the base64 payloads.
		names := make([]string, len(invalidErr.Invalid))
		for i, att := range invalidErr.Invalid {
			names[i] = att.Filename
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:              "Invalid attachments",
			InvalidAttachments: names,
		})
	case errors.As(err, &resolutionErr):
		writeError(w, http.StatusBadRequest, resolutionErr.Error())
	case errors.Is(err, mailer.ErrValidation), errors.Is(err, attachment.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gmail.ErrNoRefreshToken):
		writeError(w, http.StatusBadRequest,
			"refreshToken is required (provide in body or set GMAIL_REFRESH_TOKEN in env)")
	case errors.Is(err, gmail.ErrNoSenderEmail):
		writeError(w, http.StatusBadRequest,
			"senderEmail is required (provide in body or set GMAIL_SENDER_EMAIL in env)")
	case errors.Is(err, gmail.ErrMessageTooLarge):
		var sizeErr *gmail.SizeLimitError
		if errors.As(err, &sizeErr) {
			writeError(w, http.StatusRequestEntityTooLarge, sizeErr.Error())
			return
		}
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, gmail.ErrTokenExchange), errors.Is(err, gmail.ErrDelivery):
		h.logger.ErrorContext(r.Context(), "provider rejected send", "error", err)
		writeError(w, http.StatusBadGateway, providerMessage(err))
	default:
		h.logger.ErrorContext(r.Context(), "send failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
	}
}

// providerMessage strips the mailer wrapping so the caller sees the
// classified provider message, not the internal error chain.
func providerMessage(err error) string {
	var tokenErr *gmail.TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Error()
	}
	var apiErr *gmail.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, gmail.ErrTokenExchange) {
		return gmail.ErrTokenExchange.Error()
	}
	return gmail.ErrDelivery.Error()
}
