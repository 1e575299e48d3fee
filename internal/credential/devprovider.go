package credential

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// LogOpener logs the authorization URL instead of launching a browser. The
// BFF also reports it through the pending sign-in endpoint.
func LogOpener(logger *slog.Logger) Opener {
	return func(ctx context.Context, authURL string) error {
		logger.InfoContext(ctx, "open the identity provider to sign in", "url", authURL)
		return nil
	}
}

// DevProvider is a stand-in identity provider for the local network. It
// signs HS256 delegations for whatever principal the caller names and
// redirects back to the loopback callback.
type DevProvider struct {
	minter *Minter
	now    func() time.Time
}

func NewDevProvider(minter *Minter) *DevProvider {
	return &DevProvider{minter: minter, now: time.Now}
}

// Routes serves GET / with redirect_uri, state and principal query parameters.
// A request with cancel=1 redirects back with an error instead.
func (p *DevProvider) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", p.authorize)
	return r
}

func (p *DevProvider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirect.Scheme != "http" || !isLoopbackHost(redirect.Hostname()) {
		http.Error(w, "redirect_uri must be a loopback http url", http.StatusBadRequest)
		return
	}

	back := redirect.Query()
	back.Set("state", q.Get("state"))
	if q.Get("cancel") == "1" {
		back.Set("error", "access_denied")
		redirect.RawQuery = back.Encode()
		http.Redirect(w, r, redirect.String(), http.StatusFound)
		return
	}

	principal := q.Get("principal")
	if principal == "" {
		http.Error(w, "principal is required", http.StatusBadRequest)
		return
	}
	token, err := p.minter.Mint(principal, p.now())
	if err != nil {
		http.Error(w, "mint delegation failed", http.StatusInternalServerError)
		return
	}
	back.Set("delegation", token)
	redirect.RawQuery = back.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func isLoopbackHost(host string) bool {
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}
