package platform

import "strings"

// createPrefixes mark commands that scaffold a project and are prone to
// hanging on interactive prompts.
var createPrefixes = []string{
	"npm create", "npx create", "yarn create", "pnpm create",
	"npm init", "yarn init", "pnpm init",
}

// IsCreateCommand reports whether the command looks like a project
// scaffolding or init invocation.
func IsCreateCommand(command string) bool {
	lower := strings.ToLower(command)
	for _, p := range createPrefixes {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// FixInteractive rewrites known scaffolding commands so they run without
// prompting, returning the fixed command plus human-readable warnings
// about what changed. Unrecognized commands pass through untouched.
func FixInteractive(command string) (string, []string) {
	var warnings []string
	fixed := command
	lower := strings.ToLower(command)

	hasYes := strings.Contains(command, "--yes") || strings.Contains(command, "-y")

	switch {
	case strings.Contains(lower, "create vite") || strings.Contains(lower, "create-vite"):
		if !hasYes {
			fixed = strings.Replace(fixed, "npm create", "npm create --yes", 1)
			fixed = strings.Replace(fixed, "npx create-vite", "npx --yes create-vite", 1)
		}
		if !strings.Contains(fixed, "--template") {
			warnings = append(warnings, "Vite detected without --template. Adding default react-ts.")
			fixed += " --template react-ts"
		}

	case strings.Contains(lower, "create-next-app"):
		if !hasYes {
			warnings = append(warnings, "Next.js detected. Adding --yes flag.")
			fixed += " --yes"
		}

	case strings.Contains(lower, "create astro"):
		if !strings.Contains(command, "--template") {
			warnings = append(warnings, "Astro detected. Adding --template minimal.")
			fixed += " --template minimal --yes"
		} else if !strings.Contains(command, "--yes") {
			fixed += " --yes"
		}

	case strings.Contains(lower, "create-remix"):
		if !strings.Contains(command, "--template") {
			warnings = append(warnings, "Remix detected. Consider adding --template flag.")
			fixed += " --template remix"
		}

	case strings.Contains(lower, "shadcn"):
		if !hasYes {
			fixed += " -y"
		}

	case strings.HasSuffix(strings.TrimSpace(command), "init"):
		if !hasYes {
			warnings = append(warnings, "Init command detected. Adding -y flag.")
			fixed += " -y"
		}

	case IsCreateCommand(command):
		if !strings.Contains(command, "--") {
			warnings = append(warnings,
				"Interactive create command detected.",
				"TIP: use --yes, -y, or --template flags to avoid prompts.")
		}
	}

	return fixed, warnings
}
