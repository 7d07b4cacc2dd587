package handler

import (
	"net/http"
	"personal-brand-api/model"
	"time"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// CookieConfig controls how the token pair is handed to browsers.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c CookieConfig) set(w http.ResponseWriter, tokens *model.TokenPair) {
	http.SetCookie(w, c.cookie(accessCookieName, tokens.AccessToken, c.AccessTTL))
	http.SetCookie(w, c.cookie(refreshCookieName, tokens.RefreshToken, c.RefreshTTL))
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
