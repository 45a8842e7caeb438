package web

import "embed"

// dismissScriptPath is the path of the client dismiss script under static/.
const dismissScriptPath = "dismiss.js"

//go:embed static/dismiss.js
var staticFS embed.FS

// DismissScript returns the client trigger that posts dismiss requests.
func DismissScript() ([]byte, error) {
	return staticFS.ReadFile("static/" + dismissScriptPath)
}
