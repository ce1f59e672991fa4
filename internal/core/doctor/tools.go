package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that the external tools are available on $PATH.
type ToolsCheck struct {
	pakPath string
	gitPath string
}

// NewToolsCheck creates a new tools check for the configured executables.
func NewToolsCheck(pakPath, gitPath string) *ToolsCheck {
	return &ToolsCheck{pakPath: pakPath, gitPath: gitPath}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	// pak does all archiving and patching
	if path, err := lookPathFunc(c.pakPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "pak",
			Status: StatusFail,
			Detail: c.pakPath + " not found on PATH",
			Hint:   "install pak or point PAK_COMMAND at it",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "pak",
			Status: StatusPass,
			Detail: path,
		})
	}

	// git is only needed for the branch workflow
	if path, err := lookPathFunc(c.gitPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusWarn,
			Detail: "not found on PATH (required for --git-branch)",
			Hint:   "install git to use the branch workflow",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "git",
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
