package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// confirmPrompter asks override and failure questions on the terminal.
type confirmPrompter struct {
	accessible bool
}

func (p confirmPrompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	answer := def
	confirm := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	form := huh.NewForm(huh.NewGroup(confirm)).
		WithAccessible(p.accessible)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, fmt.Errorf("prompt aborted: %w", context.Canceled)
		}
		return false, err
	}
	return answer, nil
}

// conditionSet evaluates conditions named on the command line.
type conditionSet map[string]bool

func (c conditionSet) IsConditionTrue(id string) bool { return c[id] }

func newConditionSet(trueIDs []string) conditionSet {
	c := make(conditionSet, len(trueIDs))
	for _, id := range trueIDs {
		c[id] = true
	}
	return c
}
