package lab

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/topolab-net/topolab/pkg/util"
)

// killStrayConsoles removes leftover agetty serial-console processes that
// network-OS containers spawn and orphan on the host. Best-effort with
// per-process results; a failure to kill one never fails the destroy.
func killStrayConsoles() {
	procs, err := filepath.Glob("/proc/[0-9]*/comm")
	if err != nil {
		return
	}

	for _, comm := range procs {
		data, err := os.ReadFile(comm)
		if err != nil {
			continue // process exited under us
		}
		if strings.TrimSpace(string(data)) != "agetty" {
			continue
		}

		pid, err := strconv.Atoi(filepath.Base(filepath.Dir(comm)))
		if err != nil {
			continue
		}
		if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
			util.Warnf("kill stray agetty pid %d: %v", pid, err)
		} else {
			util.Debugf("killed stray agetty pid %d", pid)
		}
	}
}
