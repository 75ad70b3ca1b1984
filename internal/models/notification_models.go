package models

// DiscordMessagePayload represents the JSON payload sent to a Discord webhook.
type DiscordMessagePayload struct {
	Content         string              `json:"content"`                    // Message content (text)
	Username        string              `json:"username,omitempty"`         // Override the default webhook username
	AvatarURL       string              `json:"avatar_url,omitempty"`       // Override the default webhook avatar
	AllowedMentions *AllowedMentions    `json:"allowed_mentions,omitempty"` // Allowed mentions for the message
	Attachments     []DiscordAttachment `json:"attachments,omitempty"`      // Metadata of files uploaded in the same request
}

// AllowedMentions specifies how mentions should be handled in a message.
type AllowedMentions struct {
	Parse []string `json:"parse"`           // Types of mentions to parse; empty disables @everyone and friends
	Roles []string `json:"roles,omitempty"` // Array of role_ids to mention (max 100)
}

// DiscordAttachment describes a file sent in the same multipart request as the payload.
type DiscordAttachment struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// DiscordMessage is the subset of the message object returned with ?wait=true.
type DiscordMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}
