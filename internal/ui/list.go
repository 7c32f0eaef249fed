package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cmx/internal/models"
)

var (
	_ list.Item = modeItem{}
)

// modeItem wraps a [models.DecisionMode] to implement [list.Item].
type modeItem struct {
	mode models.DecisionMode
}

func (i modeItem) FilterValue() string { return i.Title() }

func (i modeItem) Title() string {
	switch i.mode {
	case models.ModePerContact:
		return "Review each contact"
	case models.ModeBulkArchive:
		return "Archive all"
	case models.ModeBulkDelete:
		return "Delete all"
	default:
		return "Decide later"
	}
}

func (i modeItem) Description() string {
	switch i.mode {
	case models.ModePerContact:
		return "Step through flagged contacts one at a time"
	case models.ModeBulkArchive:
		return "Unsubscribe and tag every flagged contact as inactive"
	case models.ModeBulkDelete:
		return "Permanently remove every flagged contact from both systems"
	default:
		return "Leave all flagged contacts untouched for a future run"
	}
}

func describeContact(contact models.MarkedContact) string {
	name := contact.Name
	if name == "" {
		name = "(no name)"
	}
	return fmt.Sprintf("%s <%s>\nFlagged by tag: %s", name, contact.Email, contact.DetectedTag)
}
