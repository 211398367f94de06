// Package runtime wraps the Docker engine API behind a narrow interface so
// the reconciler and link drivers can be unit-tested against a mock client.
package runtime

import (
	docker "github.com/fsouza/go-dockerclient"
)

// DockerClient defines the subset of the Docker client API consumed by
// topolab. The interface allows injecting a mock client in unit tests.
type DockerClient interface {
	// CreateContainer creates a container from the given options.
	CreateContainer(opts docker.CreateContainerOptions) (*docker.Container, error)
	// ListContainers returns containers matching the given criteria.
	ListContainers(opts docker.ListContainersOptions) ([]docker.APIContainers, error)
	// InspectContainer returns information about a container by its ID.
	InspectContainer(id string) (*docker.Container, error)
	// StartContainer starts a created container.
	StartContainer(id string, hostConfig *docker.HostConfig) error
	// PauseContainer freezes a running container.
	PauseContainer(id string) error
	// UnpauseContainer resumes a paused container.
	UnpauseContainer(id string) error
	// KillContainer sends a kill signal to a running container.
	KillContainer(opts docker.KillContainerOptions) error
	// CreateExec prepares a command to run inside a running container.
	CreateExec(opts docker.CreateExecOptions) (*docker.Exec, error)
	// StartExec runs a prepared exec and streams its output.
	StartExec(id string, opts docker.StartExecOptions) error
	// CreateNetwork creates a runtime-managed network object.
	CreateNetwork(opts docker.CreateNetworkOptions) (*docker.Network, error)
	// FilteredListNetworks returns networks matching the given filter.
	FilteredListNetworks(opts docker.NetworkFilterOpts) ([]docker.Network, error)
	// ConnectNetwork joins a container to a network.
	ConnectNetwork(id string, opts docker.NetworkConnectionOptions) error
	// PruneContainers removes stopped containers matching the filter.
	PruneContainers(opts docker.PruneContainersOptions) (*docker.PruneContainersResults, error)
	// PruneNetworks removes unused networks matching the filter.
	PruneNetworks(opts docker.PruneNetworksOptions) (*docker.PruneNetworksResults, error)
}

// NewClient connects to the Docker daemon using the standard DOCKER_HOST /
// DOCKER_CERT_PATH environment, falling back to the default socket.
func NewClient() (DockerClient, error) {
	return docker.NewClientFromEnv()
}
