package working_dir

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// WorkingDir is a long-lived directory that scoped temp dirs get
// created under. Keeping temp dirs under one parent makes leftover
// state easy to find and safe to wipe wholesale.
type WorkingDir struct {
	root string
}

func NewWorkingDir(dirPath string) (WorkingDir, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	workingDir := WorkingDir{root: absPath}

	if err := os.MkdirAll(workingDir.TempDir(), os.ModePerm); err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to create the temp dir")
	}

	return workingDir, nil
}

func (w WorkingDir) Root() string {
	return w.root
}

func (w WorkingDir) TempDir() string {
	return filepath.Join(w.root, "tmp")
}
