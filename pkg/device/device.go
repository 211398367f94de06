// Package device models one emulated node and its idempotent
// reconciliation against the container runtime: create-or-reuse by name,
// the per-device start-mode decision, ordered interface attachment, and
// teardown.
package device

import (
	"fmt"
	"sort"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/link"
	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
	"github.com/topolab-net/topolab/pkg/util"
)

// StartMode is the per-device decision of when interfaces are wired
// relative to container start. It is undecided until the first link binding
// and terminal once manual: a device never goes back to auto.
type StartMode int

const (
	StartUndecided StartMode = iota
	// StartAuto: the runtime attaches networks before the container starts.
	StartAuto
	// StartManual: the container starts detached, then interfaces are wired
	// into its live namespace while it is paused.
	StartManual
)

func (m StartMode) String() string {
	switch m {
	case StartAuto:
		return "auto"
	case StartManual:
		return "manual"
	}
	return "undecided"
}

// Device is a named emulated node. Identity is the prefixed name, immutable
// after construction. The containerID/pid/netnsPath fields are runtime-
// bound: populated only from the engine and re-fetched whenever needed,
// never persisted.
type Device struct {
	name     string
	hostname string
	kind     Kind
	image    string
	command  []string
	env      map[string]string
	volumes  []string
	sysctls  map[string]string
	labels   map[string]string
	confDir  string
	ports    map[docker.Port][]docker.PortBinding
	intfIPs  map[string]string // boot-time IP config, host kind only

	links          map[string]link.Link
	startMode      StartMode
	defaultNetwork string

	client runtime.DockerClient

	// runtime-bound
	containerID string
	pid         int
	netnsPath   string
}

// New constructs a device for a bare hostname. The kind is inferred from
// the name via the ordered rule table; image, command, environment and
// kernel parameters follow from the kind and the immutable config.
func New(client runtime.DockerClient, cfg *topology.Config, hostname string) *Device {
	kind, customImage := KindForName(hostname, cfg.CustomImages)
	labelKey, labelValue := cfg.Label()

	d := &Device{
		name:     cfg.DeviceName(hostname),
		hostname: hostname,
		kind:     kind,
		env:      make(map[string]string),
		sysctls:  make(map[string]string),
		labels:   map[string]string{labelKey: labelValue},
		confDir:  cfg.ConfigDir,
		ports:    make(map[docker.Port][]docker.PortBinding),
		intfIPs:  make(map[string]string),
		links:    make(map[string]link.Link),
		client:   client,
	}

	switch kind {
	case KindCEOS:
		d.image = cfg.CEOSImage
		d.env = map[string]string{
			"CEOS":                                "1",
			"EOS_PLATFORM":                        "ceoslab",
			"container":                           "docker",
			"ETBA":                                "1",
			"SKIP_ZEROTOUCH_BARRIER_IN_SYSDBINIT": "1",
			"INTFTYPE":                            "eth",
		}
		d.command = ceosBootCommand(d.env)
	case KindCVP:
		d.image = cfg.CVPImage
	case KindVR:
		d.image = cfg.VRImage
	case KindHost:
		d.image = cfg.HostImage
		d.sysctls["net.ipv4.ip_forward"] = "1"
	case KindCustom:
		d.image = customImage
	}

	return d
}

// ceosBootCommand builds the systemd boot command, re-exporting the
// container environment the way the cEOS init expects it.
func ceosBootCommand(env map[string]string) []string {
	cmd := []string{"/sbin/init"}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd = append(cmd, fmt.Sprintf("systemd.setenv=%s=%s", k, env[k]))
	}
	return cmd
}

// Name returns the globally unique device name.
func (d *Device) Name() string { return d.name }

// Hostname returns the bare descriptor hostname.
func (d *Device) Hostname() string { return d.hostname }

// Kind returns the inferred device kind.
func (d *Device) Kind() Kind { return d.kind }

// Image returns the container image reference.
func (d *Device) Image() string { return d.image }

// Mode returns the current start mode.
func (d *Device) Mode() StartMode { return d.startMode }

// ContainerID returns the opaque runtime handle, empty before Ensure.
func (d *Device) ContainerID() string { return d.containerID }

// Pid returns the container's process id, zero before start.
func (d *Device) Pid() int { return d.pid }

// NetnsPath returns the network-namespace locator, empty before start.
func (d *Device) NetnsPath() string { return d.netnsPath }

// Links returns the owned interface → link map.
func (d *Device) Links() map[string]link.Link { return d.links }

// AddLink binds an interface to a link and advances the start-mode state
// machine. The first binding decides the baseline: a manual link means the
// device must start detached and be wired afterwards; a managed link
// becomes the default network attached at create. Any later manual link
// degrades the device to manual handling for all its links, including the
// managed ones. Once manual, always manual.
func (d *Device) AddLink(ifname string, l link.Link) error {
	if _, dup := d.links[ifname]; dup {
		return fmt.Errorf("device %s: interface %s already bound: %w", d.name, ifname, util.ErrAlreadyExists)
	}
	d.links[ifname] = l

	switch d.startMode {
	case StartUndecided:
		if l.Managed() {
			d.startMode = StartAuto
			d.defaultNetwork = l.Name()
		} else {
			d.startMode = StartManual
		}
	case StartAuto:
		if !l.Managed() {
			util.WithDevice(d.name).Debugf("link %s degrades device to manual wiring", l.Name())
			d.startMode = StartManual
			d.defaultNetwork = ""
		}
	}
	return nil
}

// SetInterfaceIP records an ip/prefix to configure on an interface at boot.
// Honored for host-kind devices only; ignored with a log line elsewhere.
func (d *Device) SetInterfaceIP(ifname, ip string) {
	if d.kind != KindHost {
		util.WithDevice(d.name).Warnf("ignoring ip %s on %s: only host devices take boot-time addresses", ip, ifname)
		return
	}
	d.intfIPs[ifname] = ip
}

// PublishPort maps an internal port to the host. A nil external spec
// publishes an unbound ephemeral port.
func (d *Device) PublishPort(internal int, ext *topology.ExternalPort) {
	port := docker.Port(fmt.Sprintf("%d/tcp", internal))
	if ext == nil {
		d.ports[port] = []docker.PortBinding{{}}
		return
	}
	d.ports[port] = []docker.PortBinding{{
		HostIP:   ext.HostIP,
		HostPort: fmt.Sprintf("%d", ext.Port),
	}}
}

// PublishedPorts returns the current host port mapping.
func (d *Device) PublishedPorts() map[docker.Port][]docker.PortBinding {
	return d.ports
}

// sortedInterfaces returns the bound interface names in sorted order, the
// deterministic attachment order used by both start modes.
func (d *Device) sortedInterfaces() []string {
	names := make([]string, 0, len(d.links))
	for ifname := range d.links {
		names = append(names, ifname)
	}
	sort.Strings(names)
	return names
}
