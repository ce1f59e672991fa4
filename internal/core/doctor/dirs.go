package doctor

import (
	"context"
	"fmt"
	"os"
)

// DirsCheck verifies that the session and data directories are writable.
type DirsCheck struct {
	dirs map[string]string
	keys []string
}

// NewDirsCheck creates a check for the labelled directories, reported in
// the order given by labels.
func NewDirsCheck(labels []string, dirs map[string]string) *DirsCheck {
	return &DirsCheck{dirs: dirs, keys: labels}
}

func (c *DirsCheck) Name() string {
	return "Directories"
}

func (c *DirsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, label := range c.keys {
		dir := c.dirs[label]
		if dir == "" {
			continue
		}

		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			result.Items = append(result.Items, CheckItem{
				Label:  label,
				Status: StatusWarn,
				Detail: dir + " does not exist (created on first use)",
			})
		case err != nil:
			result.Items = append(result.Items, CheckItem{
				Label:  label,
				Status: StatusFail,
				Detail: fmt.Sprintf("%s inaccessible: %v", dir, err),
			})
		case !info.IsDir():
			result.Items = append(result.Items, CheckItem{
				Label:  label,
				Status: StatusFail,
				Detail: dir + " is not a directory",
			})
		default:
			if err := checkWritable(dir); err != nil {
				result.Items = append(result.Items, CheckItem{
					Label:  label,
					Status: StatusFail,
					Detail: fmt.Sprintf("%s not writable: %v", dir, err),
					Hint:   "fix the directory permissions or choose another path in the config",
				})
				continue
			}
			result.Items = append(result.Items, CheckItem{
				Label:  label,
				Status: StatusPass,
				Detail: dir,
			})
		}
	}

	return result
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".pakagent-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
