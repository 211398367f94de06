package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/util"
)

// Resolve looks up the device's container by name. Pure lookup: returns
// (nil, nil) when no container exists, and never creates anything.
func (d *Device) Resolve() (*docker.Container, error) {
	listed, err := d.client.ListContainers(docker.ListContainersOptions{
		All:     true,
		Filters: map[string][]string{"name": {d.name}},
	})
	if err != nil {
		return nil, fmt.Errorf("device %s: list containers: %w", d.name, err)
	}

	for _, c := range listed {
		// The name filter is a substring match; require an exact hit.
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == d.name {
				inspected, err := d.client.InspectContainer(c.ID)
				if err != nil {
					return nil, fmt.Errorf("device %s: inspect: %w", d.name, err)
				}
				d.bind(inspected)
				return inspected, nil
			}
		}
	}
	return nil, nil
}

// Ensure resolves the container or creates it. Call sites that need to
// know whether a runtime round trip created anything check the returned
// container's state instead of guessing.
func (d *Device) Ensure() (*docker.Container, error) {
	c, err := d.Resolve()
	if err != nil || c != nil {
		return c, err
	}
	return d.create()
}

// create builds the container for this device. Manual-mode devices are
// created detached from all networks; auto-mode devices are born attached
// to their default network.
func (d *Device) create() (*docker.Container, error) {
	networkMode := d.defaultNetwork
	if d.startMode == StartManual {
		networkMode = "none"
	}

	exposed := make(map[docker.Port]struct{}, len(d.ports))
	for port := range d.ports {
		exposed[port] = struct{}{}
	}

	c, err := d.client.CreateContainer(docker.CreateContainerOptions{
		Name: d.name,
		Config: &docker.Config{
			Image:        d.image,
			Cmd:          d.bootCommand(),
			Env:          d.envList(),
			Hostname:     d.hostname,
			Labels:       d.labels,
			ExposedPorts: exposed,
			Tty:          true,
			OpenStdin:    true,
		},
		HostConfig: &docker.HostConfig{
			Binds:        d.volumeBinds(),
			Privileged:   d.kind == KindCEOS || d.kind == KindVR,
			NetworkMode:  networkMode,
			PortBindings: d.ports,
			Sysctls:      d.sysctls,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device %s: create: %w", d.name, err)
	}
	d.bind(c)
	util.WithDevice(d.name).Infof("created container (%s mode)", d.startMode)
	return c, nil
}

// Start brings the device up, idempotently. An already-running container
// is reported and left alone. The two start modes order container start
// and interface attachment differently; see AddLink.
func (d *Device) Start() error {
	c, err := d.Ensure()
	if err != nil {
		return err
	}
	if c.State.Running {
		util.WithDevice(d.name).Info("already running")
		return nil
	}

	if d.startMode == StartManual {
		return d.startManual()
	}
	return d.startAuto()
}

// startAuto attaches every owned link to the not-yet-started container,
// then starts it. The runtime handles interface creation, so ordering
// relative to the process is not a concern.
func (d *Device) startAuto() error {
	for _, ifname := range d.sortedInterfaces() {
		l := d.links[ifname]
		if l.Name() == d.defaultNetwork {
			continue // attached at create via NetworkMode
		}
		if err := l.Connect(d, ifname); err != nil {
			return fmt.Errorf("device %s: attach %s: %w", d.name, ifname, err)
		}
	}

	if err := d.client.StartContainer(d.containerID, nil); err != nil {
		return fmt.Errorf("device %s: start: %w", d.name, err)
	}
	return d.refresh()
}

// startManual starts the container detached, captures its process id and
// namespace locator, pauses it to freeze namespace state while interfaces
// are wired, attaches every link in sorted order, then unpauses.
func (d *Device) startManual() error {
	if err := d.client.StartContainer(d.containerID, nil); err != nil {
		return fmt.Errorf("device %s: start: %w", d.name, err)
	}
	if err := d.refresh(); err != nil {
		return err
	}

	if err := d.client.PauseContainer(d.containerID); err != nil {
		return fmt.Errorf("device %s: pause: %w", d.name, err)
	}

	var attachErr error
	for _, ifname := range d.sortedInterfaces() {
		if err := d.links[ifname].Connect(d, ifname); err != nil {
			attachErr = fmt.Errorf("device %s: attach %s: %w", d.name, ifname, err)
			break
		}
	}

	// Unpause even after a failed attachment: a frozen container is worse
	// than a partially wired one.
	if err := d.client.UnpauseContainer(d.containerID); err != nil && attachErr == nil {
		attachErr = fmt.Errorf("device %s: unpause: %w", d.name, err)
	}
	return attachErr
}

// Kill tears the device down. A container that is neither running nor
// paused counts as already stopped, not an error.
func (d *Device) Kill() error {
	c, err := d.Resolve()
	if err != nil {
		return err
	}
	if c == nil || (!c.State.Running && !c.State.Paused) {
		util.WithDevice(d.name).Info("already stopped")
		return nil
	}

	if err := d.client.KillContainer(docker.KillContainerOptions{ID: c.ID}); err != nil {
		return fmt.Errorf("device %s: kill: %w", d.name, err)
	}
	util.WithDevice(d.name).Info("killed")
	return nil
}

// refresh re-fetches the runtime-bound fields from the engine. They must
// never drift from runtime truth, so this is the only way they change
// after create.
func (d *Device) refresh() error {
	c, err := d.client.InspectContainer(d.containerID)
	if err != nil {
		return fmt.Errorf("device %s: inspect: %w", d.name, err)
	}
	d.bind(c)
	return nil
}

// bind copies runtime-bound fields out of an inspect result.
func (d *Device) bind(c *docker.Container) {
	d.containerID = c.ID
	d.pid = c.State.Pid
	if c.NetworkSettings != nil {
		d.netnsPath = c.NetworkSettings.SandboxKey
	}
}

// bootCommand returns the container command, folding boot-time interface
// addresses into the host entrypoint arguments.
func (d *Device) bootCommand() []string {
	if d.kind != KindHost || len(d.intfIPs) == 0 {
		return d.command
	}
	cmd := append([]string{}, d.command...)
	for _, ifname := range d.sortedInterfaces() {
		if ip, ok := d.intfIPs[ifname]; ok {
			cmd = append(cmd, fmt.Sprintf("%s:%s", ifname, ip))
		}
	}
	return cmd
}

// envList flattens the environment map the way the engine wants it.
func (d *Device) envList() []string {
	env := make([]string, 0, len(d.env))
	for k, v := range d.env {
		env = append(env, k+"="+v)
	}
	return env
}

// volumeBinds mounts a previously saved startup config into the device
// when one exists in the config directory.
func (d *Device) volumeBinds() []string {
	binds := append([]string{}, d.volumes...)
	if d.confDir == "" {
		return binds
	}
	saved := filepath.Join(d.confDir, d.name)
	if _, err := os.Stat(saved); err == nil && d.kind == KindCEOS {
		binds = append(binds, saved+":/mnt/flash/startup-config")
	}
	return binds
}
