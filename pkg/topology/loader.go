package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/topolab-net/topolab/pkg/util"
)

// Load parses a topology descriptor file and validates its structural
// requirements. Per-link problems are not checked here; the lab builder
// handles those with a soft-fail policy.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topology: read %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("topology: parse %s: %w", path, err)
	}

	if err := validate(&file); err != nil {
		return nil, fmt.Errorf("topology: %s: %w", path, err)
	}
	return &file, nil
}

// validate checks the topology-level requirements that abort before any
// runtime call is made. All problems are collected and reported together.
func validate(file *File) error {
	if file.Version == 0 {
		file.Version = 1
	}

	var problems []string
	if file.Version != 1 && file.Version != 2 {
		problems = append(problems, fmt.Sprintf("unsupported descriptor version %d (supported: 1, 2)", file.Version))
	}
	if len(file.Links) == 0 {
		problems = append(problems, "descriptor has no links")
	}
	if file.Driver != "" && !ValidDriver(file.Driver) {
		problems = append(problems, fmt.Sprintf("unsupported default driver %q", file.Driver))
	}

	if len(problems) > 0 {
		return util.NewValidationError(problems...)
	}
	return nil
}

// ValidDriver reports whether name is a supported link driver.
func ValidDriver(name string) bool {
	switch name {
	case DriverBridge, DriverMacvlan, DriverVeth:
		return true
	}
	return false
}

// Endpoint is one parsed endpoint binding from a link's endpoint list.
type Endpoint struct {
	Device    string
	Interface string
	IP        string // optional ip/prefix, honored for host devices only
}

// ParseEndpoint parses the "device[:interface[:ip/prefix]]" endpoint
// grammar. A missing interface infers eth<linkIndex>.
func ParseEndpoint(token string, linkIndex int) (Endpoint, error) {
	if token == "" {
		return Endpoint{}, fmt.Errorf("empty endpoint")
	}

	parts := strings.SplitN(token, ":", 3)
	ep := Endpoint{Device: parts[0]}
	if ep.Device == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q has no device name", token)
	}

	if len(parts) > 1 && parts[1] != "" {
		ep.Interface = parts[1]
	} else {
		ep.Interface = fmt.Sprintf("eth%d", linkIndex)
	}
	if len(parts) > 2 {
		ep.IP = parts[2]
	}
	return ep, nil
}

// Config is the immutable resolved configuration threaded explicitly into
// the lab orchestrator and device constructors. It is built exactly once,
// from the descriptor plus CLI flags, and never mutated afterwards.
type Config struct {
	Prefix        string
	Version       int
	DefaultDriver string
	CEOSImage     string
	CVPImage      string
	HostImage     string
	VRImage       string
	CustomImages  map[string]string
	Publish       *PublishSpec
	ConfigDir     string
}

// Default images used when the descriptor does not override them.
const (
	defaultCEOSImage = "ceos:latest"
	defaultCVPImage  = "cvp:latest"
	defaultHostImage = "alpine-host:latest"
	defaultVRImage   = "vrnetlab/vr-vmx:latest"
)

// ResolveConfig builds the Config for a descriptor file. The topology
// prefix defaults to the descriptor's base filename, matching the runtime
// object naming used for bulk prune.
func ResolveConfig(file *File, path string) *Config {
	cfg := &Config{
		Prefix:        file.Prefix,
		Version:       file.Version,
		DefaultDriver: file.Driver,
		CEOSImage:     file.CEOSImage,
		CVPImage:      file.CVPImage,
		HostImage:     file.HostImage,
		VRImage:       file.VRImage,
		CustomImages:  file.CustomImages,
		Publish:       file.Publish,
		ConfigDir:     file.ConfigDir,
	}

	if cfg.Prefix == "" {
		base := filepath.Base(path)
		cfg.Prefix = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if cfg.DefaultDriver == "" {
		cfg.DefaultDriver = DriverBridge
	}
	if cfg.CEOSImage == "" {
		cfg.CEOSImage = defaultCEOSImage
	}
	if cfg.CVPImage == "" {
		cfg.CVPImage = defaultCVPImage
	}
	if cfg.HostImage == "" {
		cfg.HostImage = defaultHostImage
	}
	if cfg.VRImage == "" {
		cfg.VRImage = defaultVRImage
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = "./config"
	}
	return cfg
}

// LinkName returns the generated runtime name for the link at index i.
func (c *Config) LinkName(i int) string {
	return fmt.Sprintf("%snet-%d", c.Prefix, i)
}

// DeviceName returns the globally unique runtime name for a hostname.
func (c *Config) DeviceName(hostname string) string {
	return c.Prefix + "_" + hostname
}

// Label returns the label key/value attached to every runtime object this
// topology creates, used later for bulk prune.
func (c *Config) Label() (string, string) {
	return "topolab.prefix", c.Prefix
}
