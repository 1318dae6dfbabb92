package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP method and route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// Membership route overrides: audit as user_added, user_removed, role_changed on resource "user".
const (
	memberAddRoute        = "POST /members"
	memberRemoveRoute     = "POST /members/:id/deactivate"
	memberRoleRoute       = "PATCH /members/:id/role"
	memberReactivateRoute = "POST /members/:id/reactivate"
)

// routeResources maps the leading path segment to the resource recorded in
// audit logs. Segments not listed audit under their own (singularized) name.
var routeResources = map[string]string{
	"orgs":     "organization",
	"members":  "user",
	"invites":  "invite",
	"products": "product",
	"orders":   "order",
	"bookings": "booking",
	"messages": "message",
	"policy":   "policy",
	"audit":    "audit",
	"me":       "user",
	"auth":     "session",
}

// ParseRoute returns action and resource for an HTTP method and gin route
// pattern (e.g. "POST", "/api/v1/orders/:id/cancel"). The action is the
// trailing verb segment when the route has one, otherwise a verb derived from
// the method: get, list, create, update, delete.
func ParseRoute(method, routePath string) ActionResource {
	path := strings.TrimPrefix(routePath, "/api/v1")
	path = strings.Trim(path, "/")
	if path == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	segs := strings.Split(path, "/")

	switch method + " /" + path {
	case memberAddRoute:
		return ActionResource{Action: "user_added", Resource: "user"}
	case memberRemoveRoute:
		return ActionResource{Action: "user_removed", Resource: "user"}
	case memberRoleRoute:
		return ActionResource{Action: "role_changed", Resource: "user"}
	case memberReactivateRoute:
		return ActionResource{Action: "user_reactivated", Resource: "user"}
	case "GET /me":
		return ActionResource{Action: "get", Resource: "user"}
	}

	resource := routeResources[segs[0]]
	if resource == "" {
		resource = strings.TrimSuffix(segs[0], "s")
	}

	last := segs[len(segs)-1]
	if len(segs) > 1 && !strings.HasPrefix(last, ":") && !isResourceSegment(last) {
		return ActionResource{Action: last, Resource: resource}
	}

	hasID := false
	for _, s := range segs {
		if strings.HasPrefix(s, ":") {
			hasID = true
		}
	}
	return ActionResource{Action: methodToAction(method, hasID), Resource: resource}
}

func isResourceSegment(s string) bool {
	_, ok := routeResources[s]
	return ok
}

func methodToAction(method string, hasID bool) string {
	switch method {
	case "GET":
		if hasID {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
