package doctor

import (
	"context"

	"github.com/hay-kot/pakagent/internal/core/config"
)

// RepoProbe reports whether the working directory is a git repository.
type RepoProbe func(ctx context.Context) bool

// EnvironmentCheck reports on the API key, the git repository and
// non-fatal configuration warnings.
type EnvironmentCheck struct {
	cfg    *config.Config
	isRepo RepoProbe
}

// NewEnvironmentCheck creates an environment check.
func NewEnvironmentCheck(cfg *config.Config, isRepo RepoProbe) *EnvironmentCheck {
	return &EnvironmentCheck{cfg: cfg, isRepo: isRepo}
}

func (c *EnvironmentCheck) Name() string {
	return "Environment"
}

func (c *EnvironmentCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.cfg.HasAPIKey() {
		result.Items = append(result.Items, CheckItem{
			Label:  config.EnvAPIKey,
			Status: StatusPass,
			Detail: "set (model " + c.cfg.LLM.Model + ")",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  config.EnvAPIKey,
			Status: StatusWarn,
			Detail: "not set; modify and loop will fail",
			Hint:   "export " + config.EnvAPIKey + " or add it to .env",
		})
	}

	if c.isRepo != nil {
		if c.isRepo(ctx) {
			result.Items = append(result.Items, CheckItem{Label: "git repository", Status: StatusPass})
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "git repository",
				Status: StatusWarn,
				Detail: "working directory is not a git repository; --git-branch is unavailable",
				Hint:   "run git init and commit before applying changes",
			})
		}
	}

	for _, w := range c.cfg.Warnings() {
		if w.Item == config.EnvAPIKey {
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  w.Item,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
