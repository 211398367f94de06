//go:build linux

package link

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/topolab-net/topolab/pkg/util"
)

// wireVeth performs the kernel-side wiring of one pair side into a target
// namespace. The sequence is: ensure the pair exists in the host namespace,
// move the side to the container's pid, then re-open the namespace by its
// sandbox path to rename the interface, correct its MAC, and bring it up.
// Any failure leaves the link partially wired and is surfaced to the
// caller, not retried.
func wireVeth(v *veth, side string, ep Endpoint, ifname string) error {
	if err := ensurePair(v.sideA, v.sideB); err != nil {
		return err
	}

	l, err := netlink.LinkByName(side)
	if err != nil {
		return fmt.Errorf("find %s in host namespace: %w", side, err)
	}
	if err := netlink.LinkSetNsPid(l, ep.Pid()); err != nil {
		return fmt.Errorf("move %s to pid %d: %w", side, ep.Pid(), err)
	}

	ns, err := netns.GetFromPath(ep.NetnsPath())
	if err != nil {
		return fmt.Errorf("open namespace %s: %w", ep.NetnsPath(), err)
	}
	defer ns.Close()

	handle, err := netlink.NewHandleAt(ns)
	if err != nil {
		return fmt.Errorf("netlink handle in namespace %s: %w", ep.NetnsPath(), err)
	}
	defer handle.Close()

	moved, err := handle.LinkByName(side)
	if err != nil {
		return fmt.Errorf("find %s after move: %w", side, err)
	}
	if err := handle.LinkSetName(moved, ifname); err != nil {
		return fmt.Errorf("rename %s to %s: %w", side, ifname, err)
	}
	moved, err = handle.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("find %s after rename: %w", ifname, err)
	}

	if fixed, changed := clearLocalAdminBit(moved.Attrs().HardwareAddr); changed {
		if err := handle.LinkSetHardwareAddr(moved, fixed); err != nil {
			return fmt.Errorf("correct hardware address of %s: %w", ifname, err)
		}
		util.WithLink(v.name).Debugf("cleared locally-administered bit on %s (%s)", ifname, fixed)
	}

	if err := handle.LinkSetUp(moved); err != nil {
		return fmt.Errorf("bring up %s: %w", ifname, err)
	}
	return nil
}

// ensurePair creates the veth pair in the host namespace unless a side is
// already present (the peer may already have been moved away, so either
// side counts as existing).
func ensurePair(sideA, sideB string) error {
	if _, err := netlink.LinkByName(sideA); err == nil {
		return nil
	}
	if _, err := netlink.LinkByName(sideB); err == nil {
		return nil
	}

	pair := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: sideA},
		PeerName:  sideB,
	}
	if err := netlink.LinkAdd(pair); err != nil {
		return fmt.Errorf("create veth pair %s/%s: %w", sideA, sideB, err)
	}
	return nil
}
