// Package lab is the topology orchestrator: it builds the device/link
// graph from a parsed descriptor, assigns published ports, and drives the
// create/destroy/save lifecycle across the whole set. Everything runs
// strictly sequentially; per-device failures are collected, logged, and do
// not abort sibling devices.
package lab

import (
	"errors"
	"fmt"
	"sort"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/device"
	"github.com/topolab-net/topolab/pkg/link"
	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
	"github.com/topolab-net/topolab/pkg/util"
)

// Lab is one topology: all devices and links parsed from a descriptor,
// keyed by device name and sharing the config's name prefix.
type Lab struct {
	Config  *topology.Config
	Devices map[string]*device.Device
	Links   []link.Link

	client runtime.DockerClient
}

// New creates an empty lab for a resolved config.
func New(cfg *topology.Config, client runtime.DockerClient) *Lab {
	return &Lab{
		Config:  cfg,
		Devices: make(map[string]*device.Device),
		client:  client,
	}
}

// Build materializes the entity graph from the descriptor's link list.
// Link drivers are created eagerly; devices are created on first reference
// and only gain bindings on later ones. Per-link descriptor errors are
// logged and skip that link only, so one malformed link does not abort an
// otherwise valid topology.
func (l *Lab) Build(file *topology.File) error {
	for i, def := range file.Links {
		if err := l.addLink(i, def); err != nil {
			util.WithTopology(l.Config.Prefix).Warnf("skipping link %d: %v", i, err)
		}
	}
	if len(l.Devices) == 0 {
		return fmt.Errorf("lab %s: no usable links in descriptor: %w", l.Config.Prefix, util.ErrInvalidTopology)
	}
	return nil
}

func (l *Lab) addLink(index int, def topology.LinkDef) error {
	name := l.Config.LinkName(index)
	if len(def.Endpoints) == 0 {
		return util.NewDescriptorError(name, "missing endpoints")
	}

	// Validate everything before touching any state: parse every token,
	// reject self-only links, and reject bindings that would collide with
	// an interface already bound on an existing device. A rejected link
	// must leave no trace — no network object, no device, no binding.
	endpoints := make([]topology.Endpoint, 0, len(def.Endpoints))
	distinct := make(map[string]bool)
	bound := make(map[string]bool)
	for _, token := range def.Endpoints {
		ep, err := topology.ParseEndpoint(token, index)
		if err != nil {
			return util.NewDescriptorError(name, err.Error())
		}

		key := ep.Device + "/" + ep.Interface
		if bound[key] {
			return util.NewDescriptorError(name,
				fmt.Sprintf("interface %s bound twice on %s", ep.Interface, ep.Device))
		}
		bound[key] = true
		if dev, ok := l.Devices[l.Config.DeviceName(ep.Device)]; ok {
			if _, taken := dev.Links()[ep.Interface]; taken {
				return util.NewDescriptorError(name,
					fmt.Sprintf("interface %s already bound on %s", ep.Interface, ep.Device))
			}
		}

		distinct[ep.Device] = true
		endpoints = append(endpoints, ep)
	}
	if len(distinct) < 2 {
		return util.NewDescriptorError(name, "link must join at least two distinct devices")
	}

	lnk, err := link.New(l.client, l.Config, index, def.Driver, def.DriverOpts, len(endpoints))
	if err != nil {
		return err
	}
	if err := lnk.GetOrCreate(); err != nil {
		return err
	}

	for _, ep := range endpoints {
		dev, ok := l.Devices[l.Config.DeviceName(ep.Device)]
		if !ok {
			dev = device.New(l.client, l.Config, ep.Device)
			l.Devices[dev.Name()] = dev
		}
		if err := dev.AddLink(ep.Interface, lnk); err != nil {
			return err
		}
		if ep.IP != "" {
			dev.SetInterfaceIP(ep.Interface, ep.IP)
		}
	}

	l.Links = append(l.Links, lnk)
	return nil
}

// Create brings every device up in sorted name order, then applies the
// host-side networking fixups. The result is success only if every
// device's start succeeded; partial success still returns an error.
func (l *Lab) Create() error {
	assignPorts(l.Devices, l.Config.Publish)

	var errs []error
	for _, name := range l.sortedDeviceNames() {
		if err := l.Devices[name].Start(); err != nil {
			util.WithDevice(name).Errorf("start failed: %v", err)
			errs = append(errs, err)
		}
	}

	l.enableLLDPForwarding()
	if err := allowInterBridgeForwarding(); err != nil {
		util.WithTopology(l.Config.Prefix).Warnf("inter-bridge forwarding exception: %v", err)
	}

	return errors.Join(errs...)
}

// Destroy kills every device, then runs cleanup unconditionally: pruning
// labeled runtime objects, removing stray serial-console processes, and
// reverting the forwarding exception. Safe to call when nothing exists and
// safe to call twice.
func (l *Lab) Destroy() error {
	var errs []error
	for _, name := range l.sortedDeviceNames() {
		if err := l.Devices[name].Kill(); err != nil {
			util.WithDevice(name).Errorf("kill failed: %v", err)
			errs = append(errs, err)
		}
	}

	l.cleanup()
	return errors.Join(errs...)
}

// Save writes every device's running configuration into the config
// directory.
func (l *Lab) Save() error {
	var errs []error
	for _, name := range l.sortedDeviceNames() {
		if err := l.Devices[name].SaveConfig(l.Config.ConfigDir); err != nil {
			util.WithDevice(name).Errorf("save failed: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cleanup is best-effort and never contributes to the overall failure
// cause; each step logs its own outcome.
func (l *Lab) cleanup() {
	labelKey, labelValue := l.Config.Label()
	labelFilter := map[string][]string{"label": {labelKey + "=" + labelValue}}

	if _, err := l.client.PruneContainers(docker.PruneContainersOptions{Filters: labelFilter}); err != nil {
		util.WithTopology(l.Config.Prefix).Warnf("prune containers: %v", err)
	}
	if _, err := l.client.PruneNetworks(docker.PruneNetworksOptions{Filters: labelFilter}); err != nil {
		util.WithTopology(l.Config.Prefix).Warnf("prune networks: %v", err)
	}

	killStrayConsoles()

	if err := revertInterBridgeForwarding(); err != nil {
		util.WithTopology(l.Config.Prefix).Warnf("revert forwarding exception: %v", err)
	}
}

// DeviceStatus is one row of the status report.
type DeviceStatus struct {
	Name  string
	Kind  device.Kind
	Mode  device.StartMode
	State string
}

// Status resolves every device against the runtime and reports its live
// state without mutating anything.
func (l *Lab) Status() []DeviceStatus {
	var rows []DeviceStatus
	for _, name := range l.sortedDeviceNames() {
		d := l.Devices[name]
		state := "absent"
		if c, err := d.Resolve(); err != nil {
			state = "unknown"
		} else if c != nil {
			switch {
			case c.State.Paused:
				state = "paused"
			case c.State.Running:
				state = "running"
			default:
				state = "stopped"
			}
		}
		rows = append(rows, DeviceStatus{Name: name, Kind: d.Kind(), Mode: d.Mode(), State: state})
	}
	return rows
}

func (l *Lab) sortedDeviceNames() []string {
	names := make([]string, 0, len(l.Devices))
	for name := range l.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
