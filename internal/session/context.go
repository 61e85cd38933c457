package session

import "context"

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	value := ctx.Value(sessionKey{})
	s, _ := value.(*Session)
	return s
}

// AccessToken is the bearer token of the request's session, if any.
func AccessToken(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.AccessToken
	}
	return ""
}
