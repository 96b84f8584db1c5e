package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

const (
	DefaultAPIBaseURL  = "http://localhost:5001"
	DefaultRealtimeURL = "ws://localhost:5000/ws"

	realtimePath = "/ws"
)

type Settings struct {
	APIBaseURL string `env:"API_BASE_URL,default=http://localhost:5001"`

	RealtimeURL               string `env:"REALTIME_URL"`
	RealtimeEnabled           string `env:"REALTIME_ENABLED"`
	ServerlessHosts           string `env:"SERVERLESS_HOSTS,default=vercel.app|netlify.app"`
	RealtimeReconnectAttempts int    `env:"REALTIME_RECONNECT_ATTEMPTS,default=5"`
	RealtimeReconnectDelayMs  int    `env:"REALTIME_RECONNECT_DELAY_MS,default=1000"`

	SessionStorage   string `env:"SESSION_STORAGE,default=memory"`
	MongoDBURI       string `env:"MONGODB_URI"`
	SessionNamespace string `env:"SESSION_NAMESPACE,default=default"`

	LogEncoding string `env:"LOG_ENCODING,default=console"`

	Email    string `env:"DASHBOARD_EMAIL"`
	Password string `env:"DASHBOARD_PASSWORD"`
}

func FromEnviron() (Settings, error) {
	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)

	return settings, err
}

// Realtime is the realtime configuration resolved once at startup.
type Realtime struct {
	Endpoint          string
	Enabled           bool
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

func (s Settings) ResolveAPIBaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(s.APIBaseURL), "/")
	if base == "" {
		return DefaultAPIBaseURL
	}

	return base
}

// ResolveRealtimeEndpoint applies the precedence explicit override, then the
// API origin, then the built-in default.
func (s Settings) ResolveRealtimeEndpoint() string {
	if override := strings.TrimSpace(s.RealtimeURL); override != "" {
		return override
	}

	if endpoint, ok := sameOrigin(s.ResolveAPIBaseURL()); ok {
		return endpoint
	}

	return DefaultRealtimeURL
}

// ResolveRealtime decides whether realtime is available for this deployment.
// An explicit REALTIME_ENABLED wins; otherwise hosts known to be serverless
// and endpoints that cannot be parsed are treated as unavailable.
func (s Settings) ResolveRealtime() Realtime {
	endpoint := s.ResolveRealtimeEndpoint()

	realtime := Realtime{
		Endpoint:          endpoint,
		ReconnectAttempts: s.RealtimeReconnectAttempts,
		ReconnectDelay:    time.Duration(s.RealtimeReconnectDelayMs) * time.Millisecond,
	}

	switch strings.ToLower(strings.TrimSpace(s.RealtimeEnabled)) {
	case "true", "1", "yes":
		realtime.Enabled = true
		return realtime
	case "false", "0", "no":
		realtime.Enabled = false
		return realtime
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return realtime
	}

	realtime.Enabled = !isServerlessHost(u.Hostname(), s.ServerlessHosts)

	return realtime
}

func sameOrigin(apiBaseURL string) (string, bool) {
	u, err := url.Parse(apiBaseURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", false
	}

	u.Path = realtimePath
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), true
}

// isServerlessHost matches host against a |-separated list of domains.
func isServerlessHost(host string, serverlessHosts string) bool {
	host = strings.ToLower(host)

	for _, candidate := range strings.Split(serverlessHosts, "|") {
		candidate = strings.ToLower(strings.Trim(strings.TrimSpace(candidate), "."))
		if candidate == "" {
			continue
		}

		if host == candidate || strings.HasSuffix(host, "."+candidate) {
			return true
		}
	}

	return false
}
