package tasks

import (
	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/shared"
)

// Identical reports whether a Copper contact and a Mailchimp member describe
// the same person state: normalized first name, last name, and email all
// equal. Missing fields compare as empty strings, never as mismatches.
//
// Used purely as a no-op filter: identical pairs produce a skip outcome and
// no network write.
func Identical(contact models.Contact, member models.Subscriber) bool {
	return shared.NormalizeField(contact.FirstName) == shared.NormalizeField(member.FirstName) &&
		shared.NormalizeField(contact.LastName) == shared.NormalizeField(member.LastName) &&
		shared.NormalizeEmail(contact.Email) == shared.NormalizeEmail(member.Email)
}

// TruncateTags normalizes tags for the mailing provider: trimmed and clamped
// to maxLen runes. The clamp is silent; providers reject over-long tag names
// rather than truncating them server side.
func TruncateTags(tags []string, maxLen int) []string {
	if len(tags) == 0 {
		return nil
	}

	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = shared.NormalizeField(tag)
		if tag == "" {
			continue
		}
		if maxLen > 0 {
			if r := []rune(tag); len(r) > maxLen {
				tag = string(r[:maxLen])
			}
		}
		out = append(out, tag)
	}
	return out
}
