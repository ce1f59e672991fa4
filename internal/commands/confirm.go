package commands

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/pakagent/internal/core/validate"
)

// confirmFunc asks a yes/no question. Tests replace it.
var confirmFunc = func(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

// confirm returns true without asking when force is set. An aborted prompt
// counts as a decline.
func confirm(force bool, title, description string) (bool, error) {
	if force {
		return true, nil
	}
	ok, err := confirmFunc(title, description)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// instructionFunc asks for a modification request. Tests replace it.
var instructionFunc = func() (string, error) {
	var instruction string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Modification request").
				Description("Describe the change, or ask a question about the code").
				Validate(validate.Instruction).
				Value(&instruction),
		),
	).Run()
	return strings.TrimSpace(instruction), err
}
