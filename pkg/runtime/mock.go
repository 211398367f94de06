package runtime

import (
	"fmt"
	"strings"
	"sync"

	docker "github.com/fsouza/go-dockerclient"
)

// MockClient is an in-memory DockerClient for unit tests. It simulates the
// small slice of engine behavior topolab depends on: create-by-name with
// duplicate rejection, name/label filtering, the running/paused state bits,
// pid and sandbox-key assignment on start, and label-scoped prune.
//
// Calls records every mutating invocation in order so tests can assert
// sequencing (for example pause-before-attach on manually wired devices).
type MockClient struct {
	mu         sync.Mutex
	containers map[string]*docker.Container // keyed by container name
	networks   map[string]*docker.Network   // keyed by network name
	nextID     int

	Calls []string
	Execs []string

	// ExecOutput is written to the output stream of every StartExec.
	ExecOutput string

	// Failure injection, keyed by container or network name.
	FailCreate map[string]error
	FailStart  map[string]error
}

// NewMockClient creates an empty mock Docker client.
func NewMockClient() *MockClient {
	return &MockClient{
		containers: make(map[string]*docker.Container),
		networks:   make(map[string]*docker.Network),
	}
}

func (m *MockClient) record(format string, args ...interface{}) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

// Container returns the stored container by name, or nil.
func (m *MockClient) Container(name string) *docker.Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containers[name]
}

// Network returns the stored network by name, or nil.
func (m *MockClient) Network(name string) *docker.Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.networks[name]
}

// CreateContainer creates a container. A duplicate name is rejected, as the
// engine does.
func (m *MockClient) CreateContainer(opts docker.CreateContainerOptions) (*docker.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailCreate[opts.Name]; err != nil {
		return nil, err
	}
	if _, exists := m.containers[opts.Name]; exists {
		return nil, fmt.Errorf("container %s already exists", opts.Name)
	}

	m.nextID++
	c := &docker.Container{
		ID:         fmt.Sprintf("ctr-%d", m.nextID),
		Name:       "/" + opts.Name,
		Config:     opts.Config,
		HostConfig: opts.HostConfig,
		NetworkSettings: &docker.NetworkSettings{
			Networks: make(map[string]docker.ContainerNetwork),
		},
	}
	m.containers[opts.Name] = c
	m.record("CreateContainer %s", opts.Name)
	return c, nil
}

// ListContainers returns containers matching the name and label filters.
func (m *MockClient) ListContainers(opts docker.ListContainersOptions) ([]docker.APIContainers, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []docker.APIContainers
	for name, c := range m.containers {
		if !matchName(opts.Filters["name"], name) {
			continue
		}
		if !matchLabels(opts.Filters["label"], labelsOf(c.Config)) {
			continue
		}
		if !opts.All && !c.State.Running {
			continue
		}
		out = append(out, docker.APIContainers{
			ID:     c.ID,
			Names:  []string{"/" + name},
			Labels: labelsOf(c.Config),
		})
	}
	return out, nil
}

// InspectContainer returns a container by ID.
func (m *MockClient) InspectContainer(id string) (*docker.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.containers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, &docker.NoSuchContainer{ID: id}
}

// StartContainer marks a container running and assigns the runtime-bound
// fields a live engine would: a process id and a netns sandbox key.
func (m *MockClient) StartContainer(id string, hostConfig *docker.HostConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.byID(id)
	if c == nil {
		return &docker.NoSuchContainer{ID: id}
	}
	name := strings.TrimPrefix(c.Name, "/")
	if err := m.FailStart[name]; err != nil {
		return err
	}
	c.State.Running = true
	c.State.Pid = 10000 + m.nextID
	c.NetworkSettings.SandboxKey = fmt.Sprintf("/var/run/docker/netns/%s", c.ID)
	m.record("StartContainer %s", name)
	return nil
}

// PauseContainer freezes a running container.
func (m *MockClient) PauseContainer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.byID(id)
	if c == nil {
		return &docker.NoSuchContainer{ID: id}
	}
	c.State.Paused = true
	m.record("PauseContainer %s", strings.TrimPrefix(c.Name, "/"))
	return nil
}

// UnpauseContainer resumes a paused container.
func (m *MockClient) UnpauseContainer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.byID(id)
	if c == nil {
		return &docker.NoSuchContainer{ID: id}
	}
	c.State.Paused = false
	m.record("UnpauseContainer %s", strings.TrimPrefix(c.Name, "/"))
	return nil
}

// KillContainer stops a running or paused container.
func (m *MockClient) KillContainer(opts docker.KillContainerOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.byID(opts.ID)
	if c == nil {
		return &docker.NoSuchContainer{ID: opts.ID}
	}
	c.State.Running = false
	c.State.Paused = false
	m.record("KillContainer %s", strings.TrimPrefix(c.Name, "/"))
	return nil
}

// CreateExec records the requested command.
func (m *MockClient) CreateExec(opts docker.CreateExecOptions) (*docker.Exec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.Execs = append(m.Execs, strings.Join(opts.Cmd, " "))
	return &docker.Exec{ID: fmt.Sprintf("exec-%d", m.nextID)}, nil
}

// StartExec writes the canned ExecOutput to the caller's output stream.
func (m *MockClient) StartExec(id string, opts docker.StartExecOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.OutputStream != nil {
		fmt.Fprint(opts.OutputStream, m.ExecOutput)
	}
	return nil
}

// CreateNetwork creates a network. A duplicate name is rejected.
func (m *MockClient) CreateNetwork(opts docker.CreateNetworkOptions) (*docker.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailCreate[opts.Name]; err != nil {
		return nil, err
	}
	if _, exists := m.networks[opts.Name]; exists {
		return nil, fmt.Errorf("network %s already exists", opts.Name)
	}

	m.nextID++
	n := &docker.Network{
		ID:     fmt.Sprintf("net-%047d", m.nextID),
		Name:   opts.Name,
		Driver: opts.Driver,
		Labels: opts.Labels,
	}
	m.networks[opts.Name] = n
	m.record("CreateNetwork %s", opts.Name)
	return n, nil
}

// FilteredListNetworks returns networks matching the name and label filters.
func (m *MockClient) FilteredListNetworks(opts docker.NetworkFilterOpts) ([]docker.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []docker.Network
	for name, n := range m.networks {
		if nameFilter := opts["name"]; len(nameFilter) > 0 {
			matched := false
			for want := range nameFilter {
				if strings.Contains(name, want) {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		if labelFilter := opts["label"]; len(labelFilter) > 0 {
			matched := false
			for want := range labelFilter {
				if hasLabel(n.Labels, want) {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *n)
	}
	return out, nil
}

// ConnectNetwork joins a container to a network by network ID.
func (m *MockClient) ConnectNetwork(id string, opts docker.NetworkConnectionOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var net *docker.Network
	for _, n := range m.networks {
		if n.ID == id || n.Name == id {
			net = n
			break
		}
	}
	if net == nil {
		return &docker.NoSuchNetwork{ID: id}
	}

	c := m.byID(opts.Container)
	if c == nil {
		if byName, ok := m.containers[opts.Container]; ok {
			c = byName
		} else {
			return &docker.NoSuchContainer{ID: opts.Container}
		}
	}
	c.NetworkSettings.Networks[net.Name] = docker.ContainerNetwork{NetworkID: net.ID}
	m.record("ConnectNetwork %s %s", net.Name, strings.TrimPrefix(c.Name, "/"))
	return nil
}

// PruneContainers removes stopped containers carrying a matching label.
func (m *MockClient) PruneContainers(opts docker.PruneContainersOptions) (*docker.PruneContainersResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := &docker.PruneContainersResults{}
	for name, c := range m.containers {
		if c.State.Running {
			continue
		}
		if !matchLabels(opts.Filters["label"], labelsOf(c.Config)) {
			continue
		}
		results.ContainersDeleted = append(results.ContainersDeleted, c.ID)
		delete(m.containers, name)
	}
	m.record("PruneContainers")
	return results, nil
}

// PruneNetworks removes networks carrying a matching label.
func (m *MockClient) PruneNetworks(opts docker.PruneNetworksOptions) (*docker.PruneNetworksResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := &docker.PruneNetworksResults{}
	for name, n := range m.networks {
		if !matchLabels(opts.Filters["label"], n.Labels) {
			continue
		}
		results.NetworksDeleted = append(results.NetworksDeleted, name)
		delete(m.networks, name)
	}
	m.record("PruneNetworks")
	return results, nil
}

func (m *MockClient) byID(id string) *docker.Container {
	for _, c := range m.containers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func labelsOf(cfg *docker.Config) map[string]string {
	if cfg == nil {
		return nil
	}
	return cfg.Labels
}

// matchName implements docker's substring name filter.
func matchName(wants []string, name string) bool {
	if len(wants) == 0 {
		return true
	}
	for _, want := range wants {
		if strings.Contains(name, strings.Trim(want, "^$")) {
			return true
		}
	}
	return false
}

// matchLabels implements the "key=value" label filter.
func matchLabels(wants []string, labels map[string]string) bool {
	if len(wants) == 0 {
		return true
	}
	for _, want := range wants {
		if hasLabel(labels, want) {
			return true
		}
	}
	return false
}

func hasLabel(labels map[string]string, want string) bool {
	key, value, hasValue := strings.Cut(want, "=")
	got, ok := labels[key]
	if !ok {
		return false
	}
	return !hasValue || got == value
}
