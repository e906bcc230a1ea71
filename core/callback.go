package core

import (
	"fmt"
	"net/url"
)

// BuildCallbackURI appends token and email as query parameters to the
// client-supplied base URI. Existing query parameters on the base are kept.
func BuildCallbackURI(clientURI, token, email string) (string, error) {
	u, err := url.Parse(clientURI)
	if err != nil {
		return "", fmt.Errorf("invalid client URI: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	q.Set("email", email)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
