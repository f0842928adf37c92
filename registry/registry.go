package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry announces this process's listeners to a service catalog.
type ServiceRegistry interface {
	// Register registers a specific service instance.
	// id: Unique identifier for this instance (e.g., serviceName + hostname + port).
	// name: Logical name of the service (e.g., "recipe-api-http").
	// check: Health check configuration, may be nil.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes a service instance using its unique ID.
	Deregister(id string) error
}
