package lab

import (
	"fmt"

	"github.com/coreos/go-iptables/iptables"
)

// interBridgeRule accepts forwarding between runtime-created bridges,
// which docker's isolation chains would otherwise drop. The rule is
// host-wide, not topology-scoped: concurrent create/destroy of different
// topologies on one host must be serialized by the caller.
var interBridgeRule = []string{"-i", "br-+", "-o", "br-+", "-j", "ACCEPT"}

func allowInterBridgeForwarding() error {
	ipt, err := iptables.New()
	if err != nil {
		return fmt.Errorf("iptables: %w", err)
	}
	exists, err := ipt.Exists("filter", "FORWARD", interBridgeRule...)
	if err != nil {
		return fmt.Errorf("iptables: check FORWARD rule: %w", err)
	}
	if exists {
		return nil
	}
	if err := ipt.Insert("filter", "FORWARD", 1, interBridgeRule...); err != nil {
		return fmt.Errorf("iptables: insert FORWARD rule: %w", err)
	}
	return nil
}

func revertInterBridgeForwarding() error {
	ipt, err := iptables.New()
	if err != nil {
		return fmt.Errorf("iptables: %w", err)
	}
	if err := ipt.DeleteIfExists("filter", "FORWARD", interBridgeRule...); err != nil {
		return fmt.Errorf("iptables: delete FORWARD rule: %w", err)
	}
	return nil
}
