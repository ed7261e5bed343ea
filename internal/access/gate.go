package access

import (
	"net/url"
	"strings"

	"github.com/lightouch/insights/internal/domain"
)

// Gated path prefixes and redirect targets.
const (
	LoginPath     = "/login"
	PortalPath    = "/portal"
	AdminPrefix   = "/admin"
	ProjectPrefix = "/portal/projects/"
)

// Decision is the outcome of an authorization check: either the request
// may proceed, or the caller should redirect to RedirectTo.
type Decision struct {
	Allow      bool
	RedirectTo string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{RedirectTo: to} }

// Authorize decides whether identity may enter path. It is a pure
// function of its inputs: no I/O, no clock, so identical inputs always
// yield identical decisions.
func Authorize(identity *domain.ResolvedIdentity, path string) Decision {
	gated := strings.HasPrefix(path, AdminPrefix) || strings.HasPrefix(path, PortalPath)
	if !gated {
		return allow()
	}

	if identity == nil {
		return redirect(LoginPath)
	}

	if strings.HasPrefix(path, AdminPrefix) && identity.Role != domain.RoleAdmin {
		return redirect(PortalPath)
	}

	if strings.HasPrefix(path, ProjectPrefix) {
		slug, _, _ := strings.Cut(strings.TrimPrefix(path, ProjectPrefix), "/")
		if decoded, err := url.PathUnescape(slug); err == nil {
			slug = decoded
		}
		if slug != "" && !identity.CanSee(slug) {
			return redirect(PortalPath)
		}
	}

	return allow()
}
