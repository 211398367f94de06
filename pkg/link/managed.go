package link

import (
	"fmt"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/util"
)

// managed is a link realized as a runtime-created network object (bridge or
// macvlan). The runtime assigns the interface when a container joins.
type managed struct {
	client runtimeDockerClient
	name   string
	driver string
	opts   map[string]string
	labels map[string]string

	networkID string
}

// runtimeDockerClient is the slice of runtime.DockerClient the managed
// driver uses.
type runtimeDockerClient interface {
	CreateNetwork(opts docker.CreateNetworkOptions) (*docker.Network, error)
	FilteredListNetworks(opts docker.NetworkFilterOpts) ([]docker.Network, error)
	ConnectNetwork(id string, opts docker.NetworkConnectionOptions) error
}

func (m *managed) Name() string   { return m.name }
func (m *managed) Driver() string { return m.driver }
func (m *managed) Managed() bool  { return true }

// NetworkID returns the runtime network ID of a managed link, populated by
// GetOrCreate. Manual links have no network object and return "".
func NetworkID(l Link) string {
	if m, ok := l.(*managed); ok {
		return m.networkID
	}
	return ""
}

// GetOrCreate resolves the network object by the link's name, creating a
// labeled one only when no exact match exists.
func (m *managed) GetOrCreate() error {
	nets, err := m.client.FilteredListNetworks(docker.NetworkFilterOpts{
		"name": {m.name: true},
	})
	if err != nil {
		return fmt.Errorf("link %s: list networks: %w", m.name, err)
	}
	for _, n := range nets {
		// The name filter is a substring match; require an exact hit.
		if n.Name == m.name {
			m.networkID = n.ID
			util.WithLink(m.name).Debug("reusing existing network")
			return nil
		}
	}

	// The engine API takes untyped driver options; descriptor opts are
	// always strings.
	driverOpts := make(map[string]any, len(m.opts))
	for k, v := range m.opts {
		driverOpts[k] = v
	}

	n, err := m.client.CreateNetwork(docker.CreateNetworkOptions{
		Name:    m.name,
		Driver:  m.driver,
		Options: driverOpts,
		Labels:  m.labels,
	})
	if err != nil {
		return fmt.Errorf("link %s: create network: %w", m.name, err)
	}
	m.networkID = n.ID
	util.WithLink(m.name).Infof("created %s network", m.driver)
	return nil
}

// Connect joins the endpoint's container to the network. The runtime names
// the interface itself; ifname is advisory only for managed links.
func (m *managed) Connect(ep Endpoint, ifname string) error {
	if m.networkID == "" {
		if err := m.GetOrCreate(); err != nil {
			return err
		}
	}
	err := m.client.ConnectNetwork(m.networkID, docker.NetworkConnectionOptions{
		Container: ep.ContainerID(),
	})
	if err != nil {
		return fmt.Errorf("link %s: connect %s: %w", m.name, ep.Name(), err)
	}
	util.WithLink(m.name).Debugf("attached %s (%s)", ep.Name(), ifname)
	return nil
}
