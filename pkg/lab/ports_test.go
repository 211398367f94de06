package lab

import (
	"strconv"
	"testing"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/topolab-net/topolab/pkg/device"
	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
)

func portTestDevices(t *testing.T, hostnames ...string) map[string]*device.Device {
	t.Helper()
	client := runtime.NewMockClient()
	cfg := testConfig()
	devices := make(map[string]*device.Device)
	for _, h := range hostnames {
		d := device.New(client, cfg, h)
		devices[d.Name()] = d
	}
	return devices
}

func hostPort(t *testing.T, d *device.Device, internal docker.Port) docker.PortBinding {
	t.Helper()
	bindings := d.PublishedPorts()[internal]
	if len(bindings) != 1 {
		t.Fatalf("%s: bindings for %s = %v, want exactly one", d.Name(), internal, bindings)
	}
	return bindings[0]
}

func TestAssignPortsScalarBase(t *testing.T) {
	// declaration order must not matter: index follows sorted names
	devices := portTestDevices(t, "ceos-b", "ceos-a", "ceos-c")
	assignPorts(devices, &topology.PublishSpec{Base: 8000})

	want := map[string]string{
		"t1_ceos-a": "8000",
		"t1_ceos-b": "8001",
		"t1_ceos-c": "8002",
	}
	for name, port := range want {
		got := hostPort(t, devices[name], "443/tcp")
		if got.HostPort != port {
			t.Errorf("%s: host port = %q, want %q", name, got.HostPort, port)
		}
	}
}

func TestAssignPortsSkipsNonMgmtKinds(t *testing.T) {
	devices := portTestDevices(t, "ceos-a", "host1", "cvp1", "vmx1")
	assignPorts(devices, &topology.PublishSpec{Base: 9000})

	if ports := devices["t1_host1"].PublishedPorts(); len(ports) != 0 {
		t.Errorf("host device published ports: %v", ports)
	}
	if ports := devices["t1_cvp1"].PublishedPorts(); len(ports) != 0 {
		t.Errorf("cvp device published ports: %v", ports)
	}

	// ceos-a sorts before vmx1: 9000 then 9001
	if got := hostPort(t, devices["t1_ceos-a"], "443/tcp"); got.HostPort != "9000" {
		t.Errorf("ceos-a host port = %q, want 9000", got.HostPort)
	}
	if got := hostPort(t, devices["t1_vmx1"], "443/tcp"); got.HostPort != "9001" {
		t.Errorf("vmx1 host port = %q, want 9001", got.HostPort)
	}
}

func TestAssignPortsPortMap(t *testing.T) {
	devices := portTestDevices(t, "ceos-a", "ceos-b")
	assignPorts(devices, &topology.PublishSpec{
		PortMap: map[int]*topology.ExternalPort{
			443: {Port: 4430},
			22:  {HostIP: "127.0.0.1", Port: 2200},
			830: nil, // ephemeral
		},
	})

	for i, name := range []string{"t1_ceos-a", "t1_ceos-b"} {
		d := devices[name]
		if got := hostPort(t, d, "443/tcp"); got.HostPort != strconv.Itoa(4430+i) {
			t.Errorf("%s 443: host port = %q", name, got.HostPort)
		}
		ssh := hostPort(t, d, "22/tcp")
		if ssh.HostPort != strconv.Itoa(2200+i) || ssh.HostIP != "127.0.0.1" {
			t.Errorf("%s 22: binding = %+v", name, ssh)
		}
		// ephemeral: bound but unnumbered, same on every device
		eph := hostPort(t, d, "830/tcp")
		if eph.HostPort != "" || eph.HostIP != "" {
			t.Errorf("%s 830: binding = %+v, want empty", name, eph)
		}
	}
}

func TestAssignPortsNilSpec(t *testing.T) {
	devices := portTestDevices(t, "ceos-a")
	assignPorts(devices, nil)
	if ports := devices["t1_ceos-a"].PublishedPorts(); len(ports) != 0 {
		t.Errorf("nil publish spec produced ports: %v", ports)
	}
}
