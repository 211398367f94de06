//go:build !linux

package link

import (
	"fmt"

	"github.com/topolab-net/topolab/pkg/util"
)

// wireVeth is unavailable off linux: veth pairs and network namespaces are
// kernel constructs. Managed links still work anywhere Docker does.
func wireVeth(v *veth, side string, ep Endpoint, ifname string) error {
	return fmt.Errorf("link %s: veth wiring: %w", v.name, util.ErrNotSupported)
}
