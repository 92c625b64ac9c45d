// Package prompt provides interactive terminal prompts for CLI commands,
// grounded on the teacher's internal/cli/prompt (promptui wiring), trimmed
// to the one prompt this CLI needs: a type-to-confirm guard in front of a
// destructive operation.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ConfirmDanger prompts for confirmation of a dangerous operation by
// requiring the caller to type confirmWord exactly. Returns ErrAborted if
// the user presses Ctrl+C.
func ConfirmDanger(label, confirmWord string) (bool, error) {
	p := promptui.Prompt{
		Label: fmt.Sprintf("%s (type %q to confirm)", label, confirmWord),
		Validate: func(input string) error {
			if input != confirmWord {
				return fmt.Errorf("type %q to confirm", confirmWord)
			}
			return nil
		},
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}

	return result == confirmWord, nil
}
