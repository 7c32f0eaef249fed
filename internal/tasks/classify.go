// Tag-based lifecycle classification
package tasks

import (
	"strings"
	"unicode"

	"github.com/desertthunder/cmx/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// InactiveTag is the canonical tag applied to Copper contacts when they are
// archived. It must match the inactive rule so that a subsequent run
// classifies archived contacts as Inactive.
const InactiveTag = "📥 INACTIF"

// Rule maps a keyword set to a lifecycle state. Keywords are matched as
// substrings of the folded tag (diacritics removed, uppercased, trimmed).
type Rule struct {
	State    models.LifecycleState
	Keywords []string
	// Terminal rules end the scan at the first matching tag. Deletion intent
	// is irreversible and must never be masked by a tag appearing earlier or
	// later in the list.
	Terminal bool
}

// DefaultRules returns the rule table covering the tag conventions used in
// the Copper base: French and English keywords plus their emoji shorthands.
func DefaultRules() []Rule {
	return []Rule{
		{
			State:    models.MarkedForDeletion,
			Keywords: []string{"SUPPRIMER", "🗑", "DELETE", "REMOVE", "A SUPPRIMER"},
			Terminal: true,
		},
		{
			State:    models.Inactive,
			Keywords: []string{"INACTIF", "📥", "INACTIVE", "ARCHIVED"},
		},
	}
}

// Classifier derives a lifecycle state from a contact's tag list using an
// ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier, defaulting to [DefaultRules] when no
// rules are given.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify scans tags in their original order and returns exactly one state.
// A terminal rule match stops the scan immediately and reports the raw tag
// that triggered it; non-terminal matches are tentative, kept only when no
// terminal rule matches any later tag.
func (c *Classifier) Classify(tags []string) (models.LifecycleState, string) {
	state := models.Active

	for _, tag := range tags {
		folded := FoldTag(tag)
		if folded == "" {
			continue
		}

		for _, rule := range c.rules {
			if !matchesKeywords(folded, rule.Keywords) {
				continue
			}
			if rule.Terminal {
				return rule.State, tag
			}
			if rule.State > state {
				state = rule.State
			}
			break
		}
	}

	return state, ""
}

// Matches reports whether a single tag triggers the rule for the given state.
func (c *Classifier) Matches(tag string, state models.LifecycleState) bool {
	folded := FoldTag(tag)
	if folded == "" {
		return false
	}
	for _, rule := range c.rules {
		if rule.State == state {
			return matchesKeywords(folded, rule.Keywords)
		}
	}
	return false
}

func matchesKeywords(folded string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}

// FoldTag normalizes a raw tag for keyword matching: diacritics are stripped
// (à/á/â → a, è/é/ê → e, ...), the result is uppercased and trimmed. Emoji
// pass through unchanged.
func FoldTag(tag string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, tag)
	if err != nil {
		folded = tag
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}
