package lab

import (
	"fmt"
	"os"

	"github.com/topolab-net/topolab/pkg/link"
	"github.com/topolab-net/topolab/pkg/topology"
	"github.com/topolab-net/topolab/pkg/util"
)

// lldpFwdMask makes a kernel bridge forward 01:80:c2:00:00:0e (LLDP)
// frames instead of consuming them.
const lldpFwdMask = "0x4000"

// enableLLDPForwarding sets the group forwarding mask on the kernel bridge
// behind every managed bridge link, so LLDP crosses between attached
// devices. Failures are collected per item and logged; none of them fail
// the create.
func (l *Lab) enableLLDPForwarding() {
	for _, lnk := range l.Links {
		if lnk.Driver() != topology.DriverBridge {
			continue
		}
		id := link.NetworkID(lnk)
		if id == "" {
			continue
		}
		if err := setBridgeFwdMask(bridgeName(id), lldpFwdMask); err != nil {
			util.WithLink(lnk.Name()).Warnf("lldp forwarding: %v", err)
		} else {
			util.WithLink(lnk.Name()).Debug("lldp forwarding enabled")
		}
	}
}

// bridgeName maps a runtime network ID to the kernel bridge the runtime
// created for it.
func bridgeName(networkID string) string {
	if len(networkID) > 12 {
		networkID = networkID[:12]
	}
	return "br-" + networkID
}

func setBridgeFwdMask(bridge, mask string) error {
	path := fmt.Sprintf("/sys/class/net/%s/bridge/group_fwd_mask", bridge)
	if err := os.WriteFile(path, []byte(mask), 0644); err != nil {
		return fmt.Errorf("set group_fwd_mask on %s: %w", bridge, err)
	}
	return nil
}
