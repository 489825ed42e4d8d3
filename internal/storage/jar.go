package storage

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Jar is an http.CookieJar backed by the store, so the refresh cookie
// survives between CLI runs. Cookies are host-only; Domain attributes are
// ignored since the BFF never sets them.
type Jar struct {
	store *SQLiteStore
	now   func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

func NewJar(store *SQLiteStore) *Jar {
	return &Jar{store: store, now: time.Now}
}

// SetCookies implements http.CookieJar. Errors are logged because the
// interface cannot return them.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host := canonicalHost(u)
	now := j.now()

	for _, c := range cookies {
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultPath(u.Path)
		}

		var expires time.Time
		switch {
		case c.MaxAge < 0:
			expires = now
		case c.MaxAge > 0:
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			expires = c.Expires
		}

		if !expires.IsZero() && !expires.After(now) {
			if err := j.store.DeleteCookie(host, path, c.Name); err != nil {
				log.Error().Err(err).Str("cookie", c.Name).Msg("failed to delete cookie")
			}
			continue
		}

		err := j.store.SaveCookie(StoredCookie{
			Host:     host,
			Path:     path,
			Name:     c.Name,
			Value:    c.Value,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
		if err != nil {
			log.Error().Err(err).Str("cookie", c.Name).Msg("failed to save cookie")
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	stored, err := j.store.Cookies(canonicalHost(u), j.now())
	if err != nil {
		log.Error().Err(err).Str("host", u.Host).Msg("failed to load cookies")
		return nil
	}

	reqPath := u.Path
	if reqPath == "" {
		reqPath = "/"
	}

	var cookies []*http.Cookie
	for _, c := range stored {
		if c.Secure && u.Scheme != "https" {
			continue
		}
		if !pathMatch(reqPath, c.Path) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}

func canonicalHost(u *url.URL) string {
	return strings.ToLower(u.Hostname())
}

// defaultPath is the directory of the request path (RFC 6265 5.1.4).
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
