package platform

import "strings"

// serverPatterns are substrings of commands that start long-running dev
// servers. Running one in the foreground freezes the session, so the
// dispatcher treats these specially.
var serverPatterns = []string{
	"npm run dev", "npm start", "yarn dev", "yarn start",
	"pnpm dev", "pnpm start", "bun dev", "bun run dev",
	"python manage.py runserver", "uvicorn", "nodemon",
}

// IsServerCommand reports whether the command looks like it starts a
// blocking development server.
func IsServerCommand(command string) bool {
	lower := strings.ToLower(command)
	for _, p := range serverPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
