package config

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// remoteConfig mirrors the gateway's runtime config document. Only the
// gateway URL is consumed here; identity-provider ids are passed through
// for the login flow.
type remoteConfig struct {
	GatewayURL        string `json:"LOCAL_GATEWAY_URL"`
	CognitoUserPoolID string `json:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `json:"COGNITO_CLIENT_ID"`
	GoogleClientID    string `json:"GOOGLE_CLIENT_ID"`
}

// Resolver resolves the gateway base URL, optionally refining the configured
// default from a remote config document. Resolution happens at most once for
// the resolver's lifetime; a fetch failure is swallowed and the fallback URL
// is used. Construct one per application and inject it where needed.
type Resolver struct {
	fallback   string
	configURL  string
	httpClient *http.Client
	log        *slog.Logger

	once     sync.Once
	resolved remoteConfig
}

// NewResolver creates a Resolver with the given fallback gateway URL.
// configURL may be empty, in which case resolution is a no-op.
func NewResolver(fallback, configURL string, log *slog.Logger) *Resolver {
	if fallback == "" {
		fallback = DefaultGatewayURL
	}
	return &Resolver{
		fallback:   fallback,
		configURL:  configURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Resolve fetches the remote config document once. Subsequent calls return
// immediately. Failures are logged and masked; Resolve never returns an
// error because the fallback URL always remains usable.
func (r *Resolver) Resolve(ctx context.Context) {
	r.once.Do(func() {
		if r.configURL == "" {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.configURL, nil)
		if err != nil {
			r.log.Warn("building config request", "error", err)
			return
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			r.log.Warn("fetching remote config, using fallback", "error", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			r.log.Warn("remote config unavailable, using fallback", "status", resp.StatusCode)
			return
		}
		var rc remoteConfig
		if err := json.NewDecoder(resp.Body).Decode(&rc); err != nil {
			r.log.Warn("decoding remote config, using fallback", "error", err)
			return
		}
		r.resolved = rc
		r.log.Info("remote config resolved", "gateway", rc.GatewayURL)
	})
}

// GatewayURL returns the resolved gateway URL, or the fallback if resolution
// has not completed or failed. Always safe to call.
func (r *Resolver) GatewayURL() string {
	if r.resolved.GatewayURL != "" {
		return r.resolved.GatewayURL
	}
	return r.fallback
}

// GoogleClientID returns the resolved OAuth client id, or empty if the
// remote config did not provide one. Login flows that require it must treat
// empty as a blocking configuration error.
func (r *Resolver) GoogleClientID() string { return r.resolved.GoogleClientID }
