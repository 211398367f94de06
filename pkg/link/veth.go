package link

import (
	"fmt"
	"net"

	"github.com/topolab-net/topolab/pkg/util"
)

// veth is a manually wired point-to-point link: one kernel veth pair, one
// side pushed into each endpoint's network namespace. It bypasses the
// runtime's networking entirely.
type veth struct {
	name      string
	sideA     string
	sideB     string
	connected int // sides handed out so far

	// wire performs the kernel work; swapped out in tests.
	wire func(l *veth, side string, ep Endpoint, ifname string) error
}

func newVeth(name string) *veth {
	return &veth{
		name:  name,
		sideA: sideName(name, "a"),
		sideB: sideName(name, "b"),
		wire:  wireVeth,
	}
}

// sideName derives a fixed host-side interface name for one half of the
// pair. Long names are trimmed from the front to fit IFNAMSIZ: the
// trailing net-<index> part is what keeps side names distinct across
// links, so the prefix is what gets sacrificed.
func sideName(name, suffix string) string {
	if len(name) > 13 {
		name = name[len(name)-13:]
	}
	return name + "-" + suffix
}

func (v *veth) Name() string   { return v.name }
func (v *veth) Driver() string { return "veth" }
func (v *veth) Managed() bool  { return false }

// GetOrCreate is a no-op for veth links: the kernel pair is created on the
// first Connect, and disappears automatically when the owning namespaces
// are removed.
func (v *veth) GetOrCreate() error {
	return nil
}

// Connect moves the next free side of the pair into the endpoint's network
// namespace, renames it to ifname, corrects the MAC if needed, and brings
// it up. The endpoint must already have a process id and namespace locator;
// calling Connect before the container is started fails before any kernel
// state is touched.
func (v *veth) Connect(ep Endpoint, ifname string) error {
	if ep.Pid() == 0 || ep.NetnsPath() == "" {
		return fmt.Errorf("link %s: device %s: %w (container not started)",
			v.name, ep.Name(), util.ErrNoNamespace)
	}
	if v.connected >= 2 {
		return fmt.Errorf("link %s: both sides already connected", v.name)
	}

	side := v.sideA
	if v.connected == 1 {
		side = v.sideB
	}

	if err := v.wire(v, side, ep, ifname); err != nil {
		// Left partially wired on purpose: surfacing beats retrying here.
		return fmt.Errorf("link %s: wire %s into %s: %w", v.name, side, ep.Name(), err)
	}
	v.connected++
	util.WithLink(v.name).Infof("wired %s as %s on %s", side, ifname, ep.Name())
	return nil
}

// clearLocalAdminBit returns hw with the locally-administered bit of the
// first address byte cleared, and whether a change was needed. The cEOS
// control-plane agent aborts on data interfaces carrying that bit, so a
// kernel-assigned 02:xx address must become 00:xx before the interface
// comes up.
func clearLocalAdminBit(hw net.HardwareAddr) (net.HardwareAddr, bool) {
	if len(hw) == 0 || hw[0]&0x02 == 0 {
		return hw, false
	}
	fixed := make(net.HardwareAddr, len(hw))
	copy(fixed, hw)
	fixed[0] &^= 0x02
	return fixed, true
}
