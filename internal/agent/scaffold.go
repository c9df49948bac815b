package agent

import (
	"fmt"
	"sort"
	"strings"
)

// scaffoldTemplates maps framework names to non-interactive scaffolding
// commands. {name} is replaced with the project name.
var scaffoldTemplates = map[string]string{
	"vite-react":     "npm create vite@latest {name} -- --template react",
	"vite-react-ts":  "npm create vite@latest {name} -- --template react-ts",
	"vite-vue":       "npm create vite@latest {name} -- --template vue",
	"vite-vue-ts":    "npm create vite@latest {name} -- --template vue-ts",
	"vite-svelte":    "npm create vite@latest {name} -- --template svelte",
	"vite-svelte-ts": "npm create vite@latest {name} -- --template svelte-ts",

	"next":       "npx create-next-app@latest {name} --typescript --tailwind --app --yes",
	"next-js":    "npx create-next-app@latest {name} --javascript --tailwind --app --yes",
	"next-pages": "npx create-next-app@latest {name} --typescript --tailwind --src-dir --yes",

	"astro":      "npm create astro@latest {name} -- --template minimal --yes --install",
	"astro-blog": "npm create astro@latest {name} -- --template blog --yes --install",

	"remix":  "npx create-remix@latest {name} --template remix --yes",
	"react":  "npm create vite@latest {name} -- --template react-ts",
	"vue":    "npm create vite@latest {name} -- --template vue-ts",
	"svelte": "npm create vite@latest {name} -- --template svelte-ts",
	"nuxt":   "npx nuxi@latest init {name}",
	"expo":   "npx create-expo-app@latest {name} --template blank-typescript",
	"t3":     "npm create t3-app@latest {name} -- --noGit",
	"solid":  "npx degit solidjs/templates/ts {name}",
	"qwik":   "npm create qwik@latest {name}",
}

// ScaffoldCommand resolves a framework name to its scaffolding command.
// Resolution order: exact template, fuzzy substring match, then a
// generic "npm create" fallback for unknown frameworks. The returned
// note describes any non-exact resolution.
func ScaffoldCommand(framework, projectName, options string) (command, note string) {
	key := strings.ToLower(framework)

	tmpl, ok := scaffoldTemplates[key]
	if !ok {
		// Fuzzy match over sorted keys for determinism.
		keys := make([]string, 0, len(scaffoldTemplates))
		for k := range scaffoldTemplates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if strings.Contains(k, key) || strings.Contains(key, k) {
				tmpl = scaffoldTemplates[k]
				note = fmt.Sprintf("Matched '%s' to template: %s", framework, k)
				ok = true
				break
			}
		}
	}
	if !ok {
		tmpl = "npm create " + key + "@latest {name} -- --yes"
		note = fmt.Sprintf("Unknown framework '%s'. Using generic npm create.", framework)
	}

	command = strings.ReplaceAll(tmpl, "{name}", projectName)
	if options != "" {
		command += " " + options
	}
	return command, note
}

// ListTemplates renders the available scaffolding templates for the
// startup banner.
func ListTemplates() string {
	return `Available CREATE templates:
  Vite: vite-react, vite-react-ts, vite-vue, vite-svelte
  Next.js: next, next-js, next-pages
  Astro: astro, astro-blog
  Others: remix, nuxt, expo, t3, solid, qwik
  Aliases: react, vue, svelte`
}
