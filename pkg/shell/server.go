// Package shell serves the critical shell: server-guessed document attributes,
// the one-time consent handoff and the deferred bundle.
package shell

import (
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/islands/pkg/core"
)

//go:embed assets/islands.js
var defaultBundle []byte

// Bundle returns the embedded deferred bundle.
func Bundle() []byte {
	return defaultBundle
}

// Cookies read when guessing per-request state.
const (
	CookieConsent = "analytics_consent"
	CookieTheme   = "theme"
)

// Config configures a Server.
type Config struct {
	Locales *Locales
	// Consent returns the decision for a request. Defaults to CookieConsent.
	Consent func(r *http.Request) *core.ConsentSnapshot
	// Bundle overrides the embedded deferred bundle. Set DisableBundle to
	// serve none at all.
	Bundle        []byte
	DisableBundle bool
	Logger        *slog.Logger
}

// Server renders shell pages.
type Server struct {
	cfg    Config
	router chi.Router
}

// NewServer wires the routes.
func NewServer(cfg Config) *Server {
	if cfg.Consent == nil {
		cfg.Consent = CookieConsentFor
	}
	if cfg.Bundle == nil {
		cfg.Bundle = defaultBundle
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{cfg: cfg}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get(core.DeferredBundlePath, s.handleBundle)
	r.Get("/", s.handleRoot)
	r.Get("/{locale}", s.handlePage)
	r.Get("/{locale}/*", s.handlePage)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CookieConsentFor reads the consent cookie. Anything but granted/denied is undecided.
func CookieConsentFor(r *http.Request) *core.ConsentSnapshot {
	c, err := r.Cookie(CookieConsent)
	if err != nil {
		return nil
	}
	switch c.Value {
	case "granted":
		return &core.ConsentSnapshot{AnalyticsAllowed: true}
	case "denied":
		return &core.ConsentSnapshot{AnalyticsAllowed: false}
	}
	return nil
}

// GuessTheme returns the theme the server can know: an explicit cookie choice,
// or light. The client resolves "system" later.
func GuessTheme(r *http.Request) core.Theme {
	if c, err := r.Cookie(CookieTheme); err == nil {
		switch core.Theme(c.Value) {
		case core.ThemeLight, core.ThemeDark:
			return core.Theme(c.Value)
		}
	}
	return core.ThemeLight
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DisableBundle {
		http.Error(w, "deferred bundle unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.cfg.Bundle)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+s.cfg.Locales.Default().Tag, http.StatusFound)
}

type pageData struct {
	Lang    string
	Dir     string
	Theme   string
	Consent bool
	Route   string
	Heading string
	Bundle  string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Path
	locale, err := s.cfg.Locales.Resolve(route)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := pageData{
		Lang:    locale.Tag,
		Dir:     string(locale.Direction),
		Theme:   string(GuessTheme(r)),
		Consent: core.AnalyticsAllowed(s.cfg.Consent(r)),
		Route:   route,
		Heading: heading(route, chi.URLParam(r, "locale")),
		Bundle:  core.DeferredBundlePath,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTemplate.Execute(w, data); err != nil {
		s.cfg.Logger.Error("render shell", "route", route, "request_id", middleware.GetReqID(r.Context()), "error", err)
		return
	}
	s.cfg.Logger.Debug("shell rendered", "route", route, "lang", data.Lang, "analytics", data.Consent, "request_id", middleware.GetReqID(r.Context()))
}

func heading(route, locale string) string {
	rest := strings.Trim(strings.TrimPrefix(strings.TrimPrefix(route, "/"), locale), "/")
	if rest == "" {
		return "Home"
	}
	parts := strings.Split(rest, "/")
	return strings.ReplaceAll(parts[len(parts)-1], "-", " ")
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="{{.Lang}}" dir="{{.Dir}}" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Heading}}</title>
<script>window.__INITIAL_ANALYTICS_CONSENT__ = {{.Consent}};</script>
<script src="{{.Bundle}}" defer></script>
</head>
<body>
<header class="masthead" role="banner"><a href="/{{.Lang}}">{{.Lang}}</a></header>
<main id="content" role="main" data-route="{{.Route}}">
<h1>{{.Heading}}</h1>
<section data-island="brief"></section>
<section data-island="analytics" data-requires-analytics="true"></section>
</main>
</body>
</html>
`))
