package guard

import (
	"strings"

	"storefront/admin/internal/permissions"
)

type Route struct {
	Pattern    string
	Capability permissions.Capability
}

// Routes are the protected views of the shell. Exact patterns are matched
// before parameterised ones, so /users/create wins over /users/{id}.
var Routes = []Route{
	{Pattern: "/dashboard", Capability: permissions.ViewDashboard},
	{Pattern: "/users", Capability: permissions.ViewUsers},
	{Pattern: "/users/create", Capability: permissions.CreateUsers},
	{Pattern: "/users/{id}", Capability: permissions.ViewUsers},
	{Pattern: "/products", Capability: permissions.ViewProducts},
	{Pattern: "/products/create", Capability: permissions.CreateProduct},
	{Pattern: "/products/{id}", Capability: permissions.ViewProducts},
	{Pattern: "/orders", Capability: permissions.ViewOrders},
	{Pattern: "/orders/{id}", Capability: permissions.ViewOrders},
	{Pattern: "/reviews", Capability: permissions.ViewReviews},
	{Pattern: "/reviews/{id}", Capability: permissions.ViewReviews},
}

// CapabilityFor resolves a concrete path such as /orders/17 to the capability
// its view requires.
func CapabilityFor(path string) (permissions.Capability, bool) {
	path = "/" + strings.Trim(path, "/")
	for _, route := range Routes {
		if route.Pattern == path {
			return route.Capability, true
		}
	}
	for _, route := range Routes {
		if matchPattern(route.Pattern, path) {
			return route.Capability, true
		}
	}
	return 0, false
}

// MustCapability is used when wiring handlers to their view pattern.
func MustCapability(pattern string) permissions.Capability {
	for _, route := range Routes {
		if route.Pattern == pattern {
			return route.Capability
		}
	}
	panic("guard: no route " + pattern)
}

func matchPattern(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], "{") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}
