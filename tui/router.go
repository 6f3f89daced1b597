// Package tui is the terminal rendition of the chat client: a router over a messages view,
// a settings view and a not found page, plus the verification prompt.
package tui

type Route string

const (
	RouteMessages Route = "/messages"
	RouteSettings Route = "/settings"
	RouteNotFound Route = "notfound"
)

// Resolve maps a path to its view and the path to display. "/" redirects to /messages.
func Resolve(path string) (Route, string) {
	switch path {
	case "", "/", string(RouteMessages):
		return RouteMessages, string(RouteMessages)
	case string(RouteSettings):
		return RouteSettings, path
	default:
		return RouteNotFound, path
	}
}
