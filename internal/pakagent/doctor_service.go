package pakagent

import (
	"context"

	"github.com/hay-kot/pakagent/internal/core/doctor"
)

// DoctorService runs health checks on the pakagent setup.
type DoctorService struct {
	app *App
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(app *App) *DoctorService {
	return &DoctorService{app: app}
}

// CheckNames lists the names accepted by RunChecks, lowercased.
var CheckNames = []string{"tools", "directories", "environment"}

// RunChecks executes the doctor checks, limited to only when given.
func (d *DoctorService) RunChecks(ctx context.Context, only ...string) []doctor.Result {
	cfg := d.app.Config

	labels := []string{"session", "data", "mailbox"}
	dirs := map[string]string{
		"session": d.app.Session.Paths().Dir,
		"data":    cfg.DataDir,
		"mailbox": cfg.Loop.Dir,
	}

	checks := []doctor.Check{
		doctor.NewToolsCheck(cfg.PakPath, cfg.GitPath),
		doctor.NewDirsCheck(labels, dirs),
		doctor.NewEnvironmentCheck(cfg, func(ctx context.Context) bool {
			return d.app.Git.IsRepo(ctx, d.app.WorkDir)
		}),
	}
	return doctor.RunAll(ctx, checks, only...)
}
