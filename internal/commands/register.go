package commands

import (
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/urfave/cli/v3"
)

// RegisterAll attaches every pakagent subcommand to root in help order.
func RegisterAll(root *cli.Command, flags *Flags, app *pakagent.App) *cli.Command {
	root = NewInitCmd(flags).Register(root)
	root = NewPrepareCmd(flags, app).Register(root)
	root = NewModifyCmd(flags, app).Register(root)
	root = NewApplyCmd(flags, app).Register(root)
	root = NewRevertCmd(flags, app).Register(root)
	root = NewViewCmd(flags, app).Register(root)
	root = NewShowAnswerCmd(flags, app).Register(root)
	root = NewSessionCmd(flags, app).Register(root)
	root = NewLoopCmd(flags, app).Register(root)
	root = NewHistoryCmd(flags, app).Register(root)
	root = NewDoctorCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)
	return root
}
