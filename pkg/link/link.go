// Package link models a single network segment joining device interfaces,
// behind one of two dataplane drivers: a managed Docker network that the
// runtime attaches for us, or a manually wired kernel veth pair pushed
// directly into the endpoints' network namespaces.
package link

import (
	"fmt"

	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
	"github.com/topolab-net/topolab/pkg/util"
)

// Endpoint is the device-side view a link needs to attach an interface.
// pkg/device implements it; the indirection keeps link free of a device
// dependency.
type Endpoint interface {
	// Name is the device's unique runtime name.
	Name() string
	// ContainerID is the opaque runtime handle, empty before Ensure.
	ContainerID() string
	// Pid is the container's process id, zero before start.
	Pid() int
	// NetnsPath locates the container's network namespace, empty before start.
	NetnsPath() string
}

// Link is one network segment. GetOrCreate is idempotent by name; Connect
// attaches one endpoint's interface to the segment.
type Link interface {
	Name() string
	Driver() string
	// Managed reports whether the container runtime owns interface
	// attachment for this link. Manual links return false: they must be
	// wired after the owning container has a process and namespace.
	Managed() bool
	GetOrCreate() error
	Connect(ep Endpoint, ifname string) error
}

// New constructs the Link for one descriptor entry. The veth driver is
// valid only for point-to-point links; any other cardinality is rejected
// here, before anything touches the runtime or the kernel.
func New(client runtime.DockerClient, cfg *topology.Config, index int, driver string, opts map[string]string, endpoints int) (Link, error) {
	name := cfg.LinkName(index)

	if driver == "" {
		driver = cfg.DefaultDriver
	}
	if !topology.ValidDriver(driver) {
		return nil, fmt.Errorf("link %s: %w %q", name, util.ErrUnsupportedDriver, driver)
	}
	if endpoints < 2 {
		return nil, fmt.Errorf("link %s: needs at least 2 endpoints, got %d", name, endpoints)
	}

	if driver == topology.DriverVeth {
		if endpoints != 2 {
			return nil, fmt.Errorf("link %s: veth driver requires exactly 2 endpoints, got %d", name, endpoints)
		}
		return newVeth(name), nil
	}

	labelKey, labelValue := cfg.Label()
	return &managed{
		client: client,
		name:   name,
		driver: driver,
		opts:   opts,
		labels: map[string]string{labelKey: labelValue},
	}, nil
}
