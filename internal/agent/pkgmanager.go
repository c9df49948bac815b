package agent

import (
	"os"
	"path/filepath"
)

// PackageManager is the JavaScript package manager detected for the
// project.
type PackageManager struct {
	Name string
}

// lockfile precedence: the fastest tool the project has opted into wins.
var lockfiles = []struct {
	file, manager string
}{
	{"bun.lockb", "bun"},
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
}

// DetectPackageManager infers the package manager from lockfiles in
// root, defaulting to npm.
func DetectPackageManager(root string) PackageManager {
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(root, lf.file)); err == nil {
			return PackageManager{Name: lf.manager}
		}
	}
	return PackageManager{Name: "npm"}
}

// InstallCommand returns the shell command that adds pkg as a
// dependency.
func (m PackageManager) InstallCommand(pkg string) string {
	switch m.Name {
	case "pnpm":
		return "pnpm add " + pkg
	case "yarn":
		return "yarn add " + pkg
	case "bun":
		return "bun add " + pkg
	default:
		return "npm install " + pkg
	}
}
