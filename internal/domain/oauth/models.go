package oauth

import "time"

// RequestToken is the short-lived credential pair issued on login start.
// It only exists to carry the handshake between the request-token leg and
// the access-token exchange, keyed by the provider-assigned token id.
type RequestToken struct {
	Token     string    `json:"token"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessCredential is the long-lived pair used to sign authenticated API
// calls. It lives in session scope only and is never written to the shared
// request-token store.
type AccessCredential struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}
