package tasks

import (
	"context"

	"github.com/desertthunder/cmx/internal/models"
)

// DecisionProvider supplies dispositions for contacts marked for deletion.
// The engine never destroys a record without an explicit archive or delete
// decision; implementations range from the interactive TUI to fixed answers
// for automation and tests.
type DecisionProvider interface {
	// Decide is called once per run with the full marked batch and returns
	// how the batch should be handled: one decision per contact, or a single
	// bulk decision applied to all of them.
	Decide(ctx context.Context, batch []models.MarkedContact) (models.DecisionMode, error)

	// DecideOne returns the disposition for a single contact. Only called
	// when Decide returned [models.ModePerContact].
	DecideOne(ctx context.Context, contact models.MarkedContact) (models.Decision, error)
}

// StaticDecisionProvider answers every request with fixed values. Used for
// non-interactive runs (--decision flag) and tests.
type StaticDecisionProvider struct {
	Mode models.DecisionMode
	Each models.Decision
}

var _ DecisionProvider = StaticDecisionProvider{}

func (p StaticDecisionProvider) Decide(ctx context.Context, batch []models.MarkedContact) (models.DecisionMode, error) {
	return p.Mode, nil
}

func (p StaticDecisionProvider) DecideOne(ctx context.Context, contact models.MarkedContact) (models.Decision, error) {
	return p.Each, nil
}
