package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aleister1102/monsterwatch/internal/differ"
	"github.com/aleister1102/monsterwatch/internal/models"
)

const (
	// MaxMessageLength is Discord's limit for message content
	MaxMessageLength = 2000
	// PatchFileName is the attachment used when a diff does not fit inline
	PatchFileName = "changes.patch"

	truncatedSuffix = "…"
)

func formatStartup(urls []string) string {
	var sb strings.Builder
	sb.WriteString("Started listening on the following URLs:")
	for _, url := range urls {
		sb.WriteString("\n- ")
		sb.WriteString(url)
	}
	return sb.String()
}

// changedMessage is the rendered form of a change. Attachment is set when
// the inline patch would exceed the message limit.
type changedMessage struct {
	Content    string
	Attachment []byte
}

func formatChanged(prefix, url, oldContent, newContent string) changedMessage {
	patch := differ.Render(differ.Unified(oldContent, newContent, differ.DefaultContext))

	inline := fmt.Sprintf("%sFound changes in %s\n```patch\n%s```", prefix, url, patch)
	if utf8.RuneCountInString(inline) <= MaxMessageLength {
		return changedMessage{Content: inline}
	}

	return changedMessage{
		Content:    fmt.Sprintf("%sFound changes in %s\nThe diff is too large to display, see %s.", prefix, url, PatchFileName),
		Attachment: []byte(patch),
	}
}

func formatFailed(prefix, url, reason string) string {
	head := fmt.Sprintf("%sFailed to fetch %s\n\n", prefix, url)
	return head + truncate(reason, MaxMessageLength-utf8.RuneCountInString(head))
}

// formatStatus renders the heartbeat as a list with relative timestamps.
// Lines that do not fit are summarized.
func formatStatus(hb models.Heartbeat, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Status** (updated %s)", relativeTime(now.Unix()))

	for i, item := range hb.Items {
		line := fmt.Sprintf("\n- %s: updated %s, changed %s, failed %s",
			item.URL,
			optionalTime(item.LastUpdate),
			optionalTime(item.LastChange),
			optionalTime(item.LastFailure))

		remaining := len(hb.Items) - i
		more := fmt.Sprintf("\n… and %d more", remaining)
		if utf8.RuneCountInString(sb.String())+utf8.RuneCountInString(line)+utf8.RuneCountInString(more) > MaxMessageLength &&
			remaining > 1 {
			sb.WriteString(more)
			break
		}
		sb.WriteString(line)
	}
	return truncate(sb.String(), MaxMessageLength)
}

// mentionPrefix pings every configured role
func mentionPrefix(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return ""
	}
	mentions := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		mentions = append(mentions, "<@&"+id+">")
	}
	return strings.Join(mentions, " ") + "\n"
}

// relativeTime renders a Discord timestamp such as "3 minutes ago"
func relativeTime(epoch int64) string {
	return fmt.Sprintf("<t:%d:R>", epoch)
}

func optionalTime(epoch *int64) string {
	if epoch == nil {
		return "never"
	}
	return relativeTime(*epoch)
}

// truncate cuts s to at most limit runes, marking the cut
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + truncatedSuffix
}
