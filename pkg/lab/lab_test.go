package lab

import (
	"errors"
	"testing"

	"github.com/topolab-net/topolab/pkg/runtime"
	"github.com/topolab-net/topolab/pkg/topology"
	"github.com/topolab-net/topolab/pkg/util"
)

func testConfig() *topology.Config {
	return &topology.Config{
		Prefix:        "t1",
		Version:       1,
		DefaultDriver: topology.DriverBridge,
		CEOSImage:     "ceos:latest",
		CVPImage:      "cvp:latest",
		HostImage:     "alpine-host:latest",
		VRImage:       "vrnetlab/vr-vmx:latest",
	}
}

func buildLab(t *testing.T, cfg *topology.Config, links []topology.LinkDef) (*Lab, *runtime.MockClient) {
	t.Helper()
	client := runtime.NewMockClient()
	l := New(cfg, client)
	if err := l.Build(&topology.File{Version: 1, Links: links}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return l, client
}

func TestBuildGraph(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
		{Endpoints: []string{"r1:eth2", "r3:eth1"}},
	})

	if len(l.Devices) != 3 {
		t.Fatalf("devices = %d, want 3", len(l.Devices))
	}
	if len(l.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(l.Links))
	}

	// networks are created eagerly at build time
	for _, name := range []string{"t1net-0", "t1net-1"} {
		if client.Network(name) == nil {
			t.Errorf("network %s not created", name)
		}
	}

	// devices do not exist until create
	if client.Container("t1_r1") != nil {
		t.Error("container created during Build")
	}

	// r1 carries both links, r2 and r3 one each
	if n := len(l.Devices["t1_r1"].Links()); n != 2 {
		t.Errorf("r1 links = %d, want 2", n)
	}
	if n := len(l.Devices["t1_r2"].Links()); n != 1 {
		t.Errorf("r2 links = %d, want 1", n)
	}
}

func TestBuildSkipsMalformedLink(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{":eth1", "r2:eth1"}}, // empty device name
		{Endpoints: []string{"r1:eth1", "r2:eth2"}},
	})

	if len(l.Links) != 1 {
		t.Fatalf("links = %d, want 1 (malformed link skipped)", len(l.Links))
	}
	if client.Network("t1net-0") != nil {
		t.Error("skipped link still created its network")
	}
	if client.Network("t1net-1") == nil {
		t.Error("surviving link did not create its network")
	}
}

func TestBuildRejectsSelfOnlyLink(t *testing.T) {
	// all endpoints on one device is a descriptor error, not a wiring order
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r1:eth2"}},
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})

	if len(l.Links) != 1 {
		t.Fatalf("links = %d, want 1 (self-only link skipped)", len(l.Links))
	}
	if client.Network("t1net-0") != nil {
		t.Error("self-only link still created its network")
	}
	if n := len(l.Devices["t1_r1"].Links()); n != 1 {
		t.Errorf("r1 links = %d, want 1 (no bindings from the skipped link)", n)
	}
}

func TestBuildRejectedLinkLeavesNoTrace(t *testing.T) {
	// link 1 reuses r1:eth1, which link 0 already bound; the rejection
	// must not leave its network, a half-bound r3, or any binding behind
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
		{Endpoints: []string{"r3:eth1", "r1:eth1"}},
	})

	if len(l.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(l.Links))
	}
	if client.Network("t1net-1") != nil {
		t.Error("rejected link still created its network")
	}
	if _, ok := l.Devices["t1_r3"]; ok {
		t.Error("rejected link still registered a device")
	}
	if n := len(l.Devices["t1_r1"].Links()); n != 1 {
		t.Errorf("r1 links = %d, want 1", n)
	}
}

func TestBuildRejectsDoubleBindingWithinLink(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1", "r1:eth1"}},
		{Endpoints: []string{"r1:eth2", "r2:eth2"}},
	})

	if len(l.Links) != 1 {
		t.Fatalf("links = %d, want 1 (double-binding link skipped)", len(l.Links))
	}
	if client.Network("t1net-0") != nil {
		t.Error("double-binding link still created its network")
	}
}

func TestBuildAllLinksBad(t *testing.T) {
	client := runtime.NewMockClient()
	l := New(testConfig(), client)
	err := l.Build(&topology.File{Version: 1, Links: []topology.LinkDef{
		{Endpoints: []string{"bad token"}},
		{},
	}})
	if !errors.Is(err, util.ErrInvalidTopology) {
		t.Errorf("Build() error = %v, want ErrInvalidTopology", err)
	}
}

func TestCreateStartsAllDevices(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})

	if err := l.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	for _, name := range []string{"t1_r1", "t1_r2"} {
		c := client.Container(name)
		if c == nil || !c.State.Running {
			t.Errorf("%s not running after Create", name)
		}
	}
}

func TestCreatePublishesMgmtPorts(t *testing.T) {
	cfg := testConfig()
	cfg.Publish = &topology.PublishSpec{Base: 8000}
	l, client := buildLab(t, cfg, []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})

	if err := l.Create(); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	bindings := client.Container("t1_r1").HostConfig.PortBindings["443/tcp"]
	if len(bindings) != 1 || bindings[0].HostPort != "8000" {
		t.Errorf("r1 443/tcp bindings = %v, want host port 8000", bindings)
	}
}

func TestCreateCollectsFailures(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1", "r3:eth1"}},
	})
	failed := errors.New("image missing")
	client.FailStart = map[string]error{"t1_r2": failed}

	err := l.Create()
	if !errors.Is(err, failed) {
		t.Fatalf("Create() error = %v, want wrapped start failure", err)
	}

	// siblings still came up despite the failure
	for _, name := range []string{"t1_r1", "t1_r3"} {
		c := client.Container(name)
		if c == nil || !c.State.Running {
			t.Errorf("%s not running after partial Create", name)
		}
	}
}

func TestDestroyRemovesEverythingAndIsRepeatable(t *testing.T) {
	l, client := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}

	if err := l.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	if client.Container("t1_r1") != nil {
		t.Error("container survived Destroy")
	}
	if client.Network("t1net-0") != nil {
		t.Error("network survived Destroy")
	}

	// destroy of an already-clean topology is a no-op, not an error
	if err := l.Destroy(); err != nil {
		t.Fatalf("second Destroy() error: %v", err)
	}
}

func TestDestroyWithoutCreate(t *testing.T) {
	l, _ := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})
	if err := l.Destroy(); err != nil {
		t.Fatalf("Destroy() before Create: %v", err)
	}
}

func TestStatusLifecycle(t *testing.T) {
	l, _ := buildLab(t, testConfig(), []topology.LinkDef{
		{Endpoints: []string{"r1:eth1", "r2:eth1"}},
	})

	for _, row := range l.Status() {
		if row.State != "absent" {
			t.Errorf("%s state = %q before Create, want absent", row.Name, row.State)
		}
	}

	if err := l.Create(); err != nil {
		t.Fatal(err)
	}
	rows := l.Status()
	if len(rows) != 2 || rows[0].Name != "t1_r1" || rows[1].Name != "t1_r2" {
		t.Fatalf("status rows = %v, want sorted r1, r2", rows)
	}
	for _, row := range rows {
		if row.State != "running" {
			t.Errorf("%s state = %q after Create, want running", row.Name, row.State)
		}
	}
}
