package local

import (
	"path"
	"runtime"
	"strings"
)

// ProjectRoot resolves the repository root from this file's own path.
// Only meaningful for local development runs built from the repo.
func ProjectRoot() string {
	_, filePath, _, ok := runtime.Caller(0)

	if !ok {
		panic("Failed to call runtime.Caller")
	}

	if !strings.HasSuffix(filePath, "/src/shared/config/local/project_root.go") {
		panic("project_root.go has moved - update ProjectRoot to match")
	}

	// this file sits at projectRoot/src/shared/config/local/project_root.go
	// so the root is five directories up
	for i := 0; i < 5; i++ {
		filePath = path.Dir(filePath)
	}

	return filePath
}
