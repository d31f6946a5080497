package schema

import (
	"net/url"
	"strings"
	"time"
)

// NoticeLevel classifies a notice.
type NoticeLevel string

const (
	// NoticeError marks a failed operation.
	NoticeError NoticeLevel = "error"
	// NoticeInfo marks an informational notice.
	NoticeInfo NoticeLevel = "info"
)

// Notice is an entry on the user-facing error surface.
type Notice struct {
	Level       NoticeLevel `json:"type"`
	Action      Action      `json:"action,omitempty"`
	Message     string      `json:"message"`
	Description string      `json:"description,omitempty"`
	Time        time.Time   `json:"time"`
}

// Route is a presentation navigation target.
type Route string

const (
	// RouteRoot is the application list view.
	RouteRoot Route = "/"
	// RouteCreate is the creation view.
	RouteCreate            Route = "/application-create"
	routeApplicationPrefix       = "/application/"
	cloneQueryKey                = "n"
)

// RouteApplication returns the detail view route for an application.
func RouteApplication(id AppID) Route {
	return Route(routeApplicationPrefix + url.PathEscape(string(id)))
}

// RouteClone returns the creation view route carrying the source name.
func RouteClone(name string) Route {
	if strings.TrimSpace(name) == "" {
		return RouteCreate
	}
	q := url.Values{}
	q.Set(cloneQueryKey, name)
	return Route(string(RouteCreate) + "?" + q.Encode())
}

// CloneName returns the clone source carried by a creation route.
func (r Route) CloneName() string {
	parsed, err := url.Parse(string(r))
	if err != nil {
		return ""
	}
	if parsed.Path != string(RouteCreate) {
		return ""
	}
	return parsed.Query().Get(cloneQueryKey)
}

// AppID returns the application id of a detail route.
func (r Route) AppID() (AppID, bool) {
	raw, ok := strings.CutPrefix(string(r), routeApplicationPrefix)
	if !ok || raw == "" {
		return "", false
	}
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return AppID(id), true
}

// Navigation is a request to move the presentation layer to a route.
type Navigation struct {
	Route  Route  `json:"route"`
	Action Action `json:"action,omitempty"`
	AppID  AppID  `json:"app_id,omitempty"`
}
