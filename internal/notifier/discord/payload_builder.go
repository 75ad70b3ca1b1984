package discord

import "github.com/aleister1102/monsterwatch/internal/models"

// MessagePayloadBuilder helps in constructing models.DiscordMessagePayload objects.
type MessagePayloadBuilder struct {
	payload models.DiscordMessagePayload
}

// NewMessagePayloadBuilder creates a builder whose payload mentions nobody
// unless WithRoleMentions is called.
func NewMessagePayloadBuilder() *MessagePayloadBuilder {
	return &MessagePayloadBuilder{
		payload: models.DiscordMessagePayload{
			AllowedMentions: &models.AllowedMentions{Parse: []string{}},
		},
	}
}

// WithContent sets the message text.
func (b *MessagePayloadBuilder) WithContent(content string) *MessagePayloadBuilder {
	b.payload.Content = content
	return b
}

// WithUsername overrides the webhook username. Empty keeps the webhook default.
func (b *MessagePayloadBuilder) WithUsername(username string) *MessagePayloadBuilder {
	b.payload.Username = username
	return b
}

// WithAvatarURL overrides the webhook avatar.
func (b *MessagePayloadBuilder) WithAvatarURL(avatarURL string) *MessagePayloadBuilder {
	b.payload.AvatarURL = avatarURL
	return b
}

// WithRoleMentions allows the given roles to be pinged by the content.
func (b *MessagePayloadBuilder) WithRoleMentions(roleIDs []string) *MessagePayloadBuilder {
	if len(roleIDs) == 0 {
		return b
	}
	b.payload.AllowedMentions = &models.AllowedMentions{
		Parse: []string{},
		Roles: append([]string(nil), roleIDs...),
	}
	return b
}

// AddAttachment declares a file uploaded in the same request. Files are
// numbered in the order they are added.
func (b *MessagePayloadBuilder) AddAttachment(filename string) *MessagePayloadBuilder {
	b.payload.Attachments = append(b.payload.Attachments, models.DiscordAttachment{
		ID:       len(b.payload.Attachments),
		Filename: filename,
	})
	return b
}

// Build returns the constructed payload.
func (b *MessagePayloadBuilder) Build() models.DiscordMessagePayload {
	return b.payload
}
