package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"recipe-api/config"
	"strings"
	"sync"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAgent answers the handful of Consul agent endpoints the registry uses.
type fakeAgent struct {
	mu       sync.Mutex
	services map[string]consulapi.AgentServiceRegistration
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w.Header().Set("X-Consul-Index", "1")
	w.Header().Set("X-Consul-LastContact", "0")
	w.Header().Set("X-Consul-KnownLeader", "true")

	switch {
	case r.URL.Path == "/v1/agent/self":
		_ = json.NewEncoder(w).Encode(map[string]map[string]interface{}{"Config": {"NodeName": "node-1"}})
	case r.URL.Path == "/v1/agent/service/register":
		var reg consulapi.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.services[reg.ID] = reg
	case strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		delete(a.services, strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/"))
	default:
		http.NotFound(w, r)
	}
}

func newTestRegistry(t *testing.T) (ServiceRegistry, *fakeAgent) {
	t.Helper()
	agent := &fakeAgent{services: map[string]consulapi.AgentServiceRegistration{}}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	r, err := NewConsulRegistry(config.ConsulConfig{Address: strings.TrimPrefix(srv.URL, "http://")}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return r, agent
}

func TestNewConsulRegistryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	_, err := NewConsulRegistry(config.ConsulConfig{Address: addr}, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestSelfRegister(t *testing.T) {
	r, agent := newTestRegistry(t)

	deregister, err := SelfRegister(r, "api.local",
		Endpoint{Name: "recipe-api-http", Port: 8000, HTTPPath: "/health"},
		Endpoint{Name: "recipe-api-grpc", Port: 50051},
	)
	require.NoError(t, err)
	require.Len(t, agent.services, 2)

	httpReg := agent.services["recipe-api-http-api.local-8000"]
	require.NotNil(t, httpReg.Check)
	assert.Equal(t, "http://api.local:8000/health", httpReg.Check.HTTP)
	assert.Equal(t, "http", httpReg.Meta["protocol"])
	grpcReg := agent.services["recipe-api-grpc-api.local-50051"]
	assert.Equal(t, "api.local:50051", grpcReg.Check.GRPC)
	assert.Equal(t, "grpc", grpcReg.Meta["protocol"])

	deregister()
	assert.Empty(t, agent.services)
}
