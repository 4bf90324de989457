package line

// Config represents the configuration for the LINE platform client
type Config struct {
	// ChannelID is the LINE Login channel id, used as client_id for ID token verification
	ChannelID string

	// MessagingToken is the Messaging API channel access token
	MessagingToken string

	// BaseURL is the LINE API base URL
	BaseURL string
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	return nil
}

// CanVerify reports whether ID tokens can be verified
func (c Config) CanVerify() bool {
	return c.ChannelID != ""
}

// CanPush reports whether push messages can be sent
func (c Config) CanPush() bool {
	return c.MessagingToken != ""
}
