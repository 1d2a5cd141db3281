package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	baseURLVar          = "API_BASE_URL"
	authPathVar         = "API_AUTH"
	reservationsPathVar = "API_RESERVATIONS"
	tenantsPathVar      = "API_TENANTS"
	requestTimeoutVar   = "API_TIMEOUT"

	defaultAuthPath         = "/api/auth"
	defaultReservationsPath = "/api/reservations"
	defaultTenantsPath      = "/api/tenants"
)

type APIConfig interface {
	GetBaseURL() string
	GetAuthPath() string
	GetReservationsPath() string
	GetTenantsPath() string
	GetRequestTimeout() time.Duration
}

// EndpointsFile mirrors the config.json shipped next to the web console.
type EndpointsFile struct {
	BaseURL         string `json:"api_base_url,omitempty"`
	APIAuth         string `json:"api_auth,omitempty"`
	APIReservations string `json:"api_reservations,omitempty"`
	APITenants      string `json:"api_tenants,omitempty"`
}

// LoadEndpointsFile reads the endpoints file. A missing file is not an error.
func LoadEndpointsFile(path string) (EndpointsFile, error) {
	var ef EndpointsFile
	if path == "" {
		return ef, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ef, nil
	}
	if err != nil {
		return ef, fmt.Errorf("[config LoadEndpointsFile] read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &ef); err != nil {
		return ef, fmt.Errorf("[config LoadEndpointsFile] parse %s: %w", path, err)
	}
	return ef, nil
}

type API struct {
	endpoints EndpointsFile
}

var _ APIConfig = API{}

// NewAPI builds an API config from an endpoints file, used by callers that do not load the environment.
func NewAPI(endpoints EndpointsFile) API {
	return API{endpoints: endpoints}
}

func (a API) GetBaseURL() string {
	return strings.TrimRight(firstNonEmpty(GetEnv(baseURLVar, ""), a.endpoints.BaseURL, "http://localhost:8000"), "/")
}

func (a API) GetAuthPath() string {
	return cleanPath(firstNonEmpty(GetEnv(authPathVar, ""), a.endpoints.APIAuth, defaultAuthPath))
}

func (a API) GetReservationsPath() string {
	return cleanPath(firstNonEmpty(GetEnv(reservationsPathVar, ""), a.endpoints.APIReservations, defaultReservationsPath))
}

func (a API) GetTenantsPath() string {
	return cleanPath(firstNonEmpty(GetEnv(tenantsPathVar, ""), a.endpoints.APITenants, defaultTenantsPath))
}

// GetRequestTimeout of zero leaves timeouts to the transport defaults.
func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutVar, 0)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cleanPath(p string) string {
	p = strings.TrimRight(p, "/")
	if !strings.HasPrefix(p, "/") && !strings.Contains(p, "://") {
		p = "/" + p
	}
	return p
}
