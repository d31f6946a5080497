package httpapi

import (
	"net/http"
	"strings"

	"pkt.systems/benchdeck/schema"
)

// mount describes where the console is published: the path prefix it is
// served under and the public href navigation routes resolve against.
type mount struct {
	prefix string
	href   string
}

func newMount(baseURL, basePath string) mount {
	prefix := cleanPrefix(basePath)
	public := strings.TrimRight(strings.TrimSpace(baseURL), "/") + prefix
	if public != "" {
		public += "/"
	}
	return mount{prefix: prefix, href: public}
}

// cleanPrefix returns "" for the root, otherwise a path with a leading and
// no trailing slash.
func cleanPrefix(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// resolve maps a console route to the public href.
func (m mount) resolve(route schema.Route) string {
	if m.href == "" {
		return string(route)
	}
	return m.href + strings.TrimPrefix(string(route), "/")
}

// wrap serves handler under the prefix. The bare prefix redirects to its
// slash form.
func (m mount) wrap(handler http.Handler) http.Handler {
	if m.prefix == "" {
		return handler
	}
	root := http.NewServeMux()
	root.Handle(m.prefix+"/", http.StripPrefix(m.prefix, handler))
	root.HandleFunc(m.prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != m.prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, m.prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}
