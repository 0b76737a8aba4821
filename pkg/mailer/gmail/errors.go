package gmail

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned at construction when the OAuth
	// client ID or secret is absent. This is a fatal configuration error.
	ErrMissingCredentials = errors.New("gmail: client ID and client secret are required")

	// ErrNoRefreshToken is returned when neither the message nor the
	// configuration provides a refresh token.
	ErrNoRefreshToken = errors.New("gmail: refresh token is empty or not provided")

	// ErrNoSenderEmail is returned when neither the message nor the
	// configuration provides a sender address.
	ErrNoSenderEmail = errors.New("gmail: sender email is empty or not provided")

	// ErrTokenExchange is the base kind for failed refresh-token exchanges.
	ErrTokenExchange = errors.New("gmail: token exchange failed")

	// ErrDelivery is the base kind for rejected delivery calls.
	ErrDelivery = errors.New("gmail: delivery failed")

	// ErrMessageTooLarge is the base kind for messages over the provider's
	// 25 MiB limit.
	ErrMessageTooLarge = errors.New("gmail: message exceeds size limit")
)

// TokenError classifies a failed token exchange. Code carries the OAuth
// error code the provider returned, empty when the error body could not be
// parsed. Raw provider output is never included.
type TokenError struct {
	Code        string
	Description string
}

func (e *TokenError) Error() string {
	switch e.Code {
	case "invalid_grant":
		return "token exchange failed: invalid_grant. The refresh token is invalid, expired, revoked, or belongs to a different client ID. Obtain a new refresh token via the authorization flow"
	case "invalid_client":
		return "token exchange failed: invalid_client. Check that the configured client ID and client secret are correct"
	case "":
		return "token exchange failed: unable to parse error response"
	default:
		detail := e.Code
		if e.Description != "" {
			detail += " (" + e.Description + ")"
		}
		return "token exchange failed: " + detail
	}
}

func (e *TokenError) Unwrap() error { return ErrTokenExchange }

// Category buckets delivery failures into user-facing classes. Raw provider
// error bodies are never echoed.
type Category string

const (
	CategoryBadRequest  Category = "bad_request"
	CategoryAuth        Category = "auth"
	CategoryQuota       Category = "quota"
	CategoryRateLimited Category = "rate_limited"
	CategoryUnavailable Category = "unavailable"
	CategoryUnknown     Category = "unknown"
)

// APIError reports a rejected delivery call, classified by status code.
type APIError struct {
	StatusCode int
	Category   Category
}

func (e *APIError) Error() string {
	switch e.Category {
	case CategoryBadRequest:
		return fmt.Sprintf("gmail api error (%d): bad request, check the email parameters", e.StatusCode)
	case CategoryAuth:
		return fmt.Sprintf("gmail api error (%d): authentication failed, check the refresh token", e.StatusCode)
	case CategoryQuota:
		return fmt.Sprintf("gmail api error (%d): access forbidden, check OAuth permissions and API quotas", e.StatusCode)
	case CategoryRateLimited:
		return fmt.Sprintf("gmail api error (%d): rate limit exceeded, too many requests", e.StatusCode)
	case CategoryUnavailable:
		return fmt.Sprintf("gmail api error (%d): service temporarily unavailable, try again later", e.StatusCode)
	default:
		return fmt.Sprintf("gmail api error (%d)", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return ErrDelivery }

// SizeLimitError reports a composed message over the provider limit,
// carrying both the measured and limit values in bytes.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("message size (%.2fMB) exceeds gmail api limit of %.2fMB",
		float64(e.Size)/1024/1024, float64(e.Limit)/1024/1024)
}

func (e *SizeLimitError) Unwrap() error { return ErrMessageTooLarge }

func classifyStatus(status int) Category {
	switch {
	case status == 400:
		return CategoryBadRequest
	case status == 401:
		return CategoryAuth
	case status == 403:
		return CategoryQuota
	case status == 429:
		return CategoryRateLimited
	case status >= 500:
		return CategoryUnavailable
	default:
		return CategoryUnknown
	}
}
