package line

import "fmt"

// IDTokenClaims is the verified payload of a LIFF ID token
type IDTokenClaims struct {
	Issuer   string   `json:"iss"`
	Subject  string   `json:"sub"`
	Audience string   `json:"aud"`
	Expiry   int64    `json:"exp"`
	IssuedAt int64    `json:"iat"`
	Nonce    string   `json:"nonce,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	Name     string   `json:"name,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Email    string   `json:"email,omitempty"`
}

// TextMessage is a Messaging API text message object
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PushRequest is the body of the push message API
type PushRequest struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

// LoginErrorResponse is returned by the LINE Login endpoints
type LoginErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// MessagingErrorResponse is returned by the Messaging API
type MessagingErrorResponse struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details,omitempty"`
}

func (e *MessagingErrorResponse) Error() string {
	return fmt.Sprintf("line messaging error: %s", e.Message)
}
