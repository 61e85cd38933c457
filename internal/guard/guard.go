package guard

import (
	"storefront/admin/internal/auth"
	"storefront/admin/internal/permissions"
)

type State int

const (
	// StateUnknown means the session could not be looked up yet.
	StateUnknown State = iota
	StateUnauthenticated
	StateInsufficient
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateInsufficient:
		return "insufficient"
	case StateAuthorized:
		return "authorized"
	default:
		return "invalid"
	}
}

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Input is everything the guard needs to decide about one request.
type Input struct {
	Ready     bool
	LookupErr error
	Token     string
	TokenErr  error
	Principal *auth.Principal
	Requires  []permissions.Capability
}

type Decision struct {
	State       State
	Redirect    string
	Permissions permissions.Set
}

// Evaluate is pure: it never performs I/O and always returns a decision.
func Evaluate(in Input) Decision {
	if !in.Ready || in.LookupErr != nil {
		return Decision{State: StateUnknown}
	}
	if in.Token == "" || in.Principal == nil || in.TokenErr != nil {
		return Decision{State: StateUnauthenticated, Redirect: LoginPath}
	}
	set := permissions.Resolve(in.Principal.Role)
	if !in.Principal.Role.BackOffice() {
		return Decision{State: StateInsufficient, Redirect: UnauthorizedPath, Permissions: set}
	}
	for _, c := range in.Requires {
		if !set.Has(c) {
			return Decision{State: StateInsufficient, Redirect: UnauthorizedPath, Permissions: set}
		}
	}
	return Decision{State: StateAuthorized, Permissions: set}
}
