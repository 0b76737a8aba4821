package gmail

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// exchangeToken trades the refresh token for a short-lived access token.
// Nothing is cached: every send performs a fresh exchange, so a revoked
// token fails the very next delivery instead of lingering until expiry.
func (s *Sender) exchangeToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	src := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// Structured OAuth error bodies map to actionable messages;
			// unparseable bodies leave ErrorCode empty, which TokenError
			// renders as a generic failure without echoing the response.
			return "", &TokenError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
		}
		return "", errors.Join(ErrTokenExchange, err)
	}

	if token.AccessToken == "" {
		return "", errors.Join(ErrTokenExchange, errors.New("access token not received in response"))
	}

	return token.AccessToken, nil
}
