package registry

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint is one listener of this process announced to the registry.
type Endpoint struct {
	Name string
	Port int
	// HTTPPath selects an HTTP check; otherwise a gRPC health check is used.
	HTTPPath string
}

// SelfRegister announces every endpoint under host and returns a function
// deregistering them again. Endpoints registered before a failure are
// deregistered before the error is returned.
func SelfRegister(r ServiceRegistry, host string, endpoints ...Endpoint) (func(), error) {
	var ids []string
	deregister := func() {
		for _, id := range ids {
			_ = r.Deregister(id)
		}
	}

	for _, ep := range endpoints {
		id := fmt.Sprintf("%s-%s-%d", ep.Name, host, ep.Port)
		check := CreateGRPCCheck(id, net.JoinHostPort(host, strconv.Itoa(ep.Port)), "10s", "2s", false)
		if ep.HTTPPath != "" {
			check = CreateHTTPCheck(id, host, ep.Port, ep.HTTPPath, "10s", "2s")
		}
		if err := r.Register(id, ep.Name, host, ep.Port, []string{"recipe-api"}, check); err != nil {
			deregister()
			return nil, err
		}
		ids = append(ids, id)
	}
	return deregister, nil
}
