// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// Instruction validates a modification request is non-empty after trimming whitespace.
func Instruction(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("request is required")
	}
	return nil
}

// InstructionField returns a criterio validator for a single instruction.
func InstructionField(field, s string) error {
	return criterio.Run(field, s, Instruction)
}

// Instructions validates a rotation list: at least one entry and no blank entries.
func Instructions(field string, list []string) error {
	if len(list) == 0 {
		return criterio.NewFieldErrors(field, fmt.Errorf("at least one instruction is required"))
	}

	var errs criterio.FieldErrorsBuilder
	for i, s := range list {
		if err := Instruction(s); err != nil {
			errs = errs.Append(fmt.Sprintf("%s[%d]", field, i), err)
		}
	}
	return errs.ToError()
}
