package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError reports that none of the searched config paths exist.
type NotFoundError struct {
	Paths []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(
		"Config file not found. Expected in one of the following locations:\n  %s",
		strings.Join(e.Paths, "\n  "),
	)
}

// CandidatePaths returns the config file locations in search order. A
// non-empty override is placed first. The remaining locations run from the
// most to the least specific: home directory before working directory,
// cogswell.json before cogs.json. The home directory locations are left out
// when home is empty.
func CandidatePaths(home, override string) []string {
	var paths []string
	if override != "" {
		paths = append(paths, override)
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".cogswell", "cogs.json"),
			filepath.Join(home, "cogswell.json"),
			filepath.Join(home, "cogs.json"),
		)
	}
	return append(paths, "./cogswell.json", "./cogs.json")
}

// Find returns the first path for which exists reports true. Paths are
// checked one at a time, in order, and checking stops at the first hit.
func Find(paths []string, exists func(string) bool) (string, bool) {
	for _, p := range paths {
		if exists(p) {
			return p, true
		}
	}
	return "", false
}

// FileExists reports whether a file (or anything else) exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolve finds the first existing path on the filesystem, returning a
// *NotFoundError listing every searched path if there is none.
func Resolve(paths []string) (string, error) {
	if p, ok := Find(paths, FileExists); ok {
		return p, nil
	}
	return "", &NotFoundError{Paths: paths}
}
