package lab

import (
	"sort"

	"github.com/topolab-net/topolab/pkg/device"
	"github.com/topolab-net/topolab/pkg/topology"
)

// mgmtPort is the internal management port published when the descriptor
// gives only a base port number.
const mgmtPort = 443

// assignPorts gives each management-exposing device a deterministic host
// port. The index is the device's position in the alphabetically sorted
// eligible-name list, so assignment is reproducible and collision-free
// across repeated runs over the same device set, regardless of declaration
// order.
func assignPorts(devices map[string]*device.Device, spec *topology.PublishSpec) {
	if spec == nil {
		return
	}

	var eligible []string
	for name, d := range devices {
		if d.Kind().PublishesMgmt() {
			eligible = append(eligible, name)
		}
	}
	sort.Strings(eligible)

	for i, name := range eligible {
		d := devices[name]
		if spec.PortMap == nil {
			d.PublishPort(mgmtPort, &topology.ExternalPort{Port: spec.Base + i})
			continue
		}
		for internal, ext := range spec.PortMap {
			if ext == nil {
				// Ephemeral: the runtime picks, no offset arithmetic.
				d.PublishPort(internal, nil)
				continue
			}
			d.PublishPort(internal, &topology.ExternalPort{
				HostIP: ext.HostIP,
				Port:   ext.Port + i,
			})
		}
	}
}
