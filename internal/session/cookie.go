package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

// ReadID returns the session id carried by the request cookie. Values that are
// not UUIDs are ignored.
func ReadID(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	parsed, err := uuid.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return parsed.String()
}

func Cookie(name, id string, secure bool, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
}

func ExpiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
