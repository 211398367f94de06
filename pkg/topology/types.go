// Package topology defines the YAML topology descriptor format and the
// immutable configuration resolved from it at startup.
package topology

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Supported link drivers.
const (
	DriverBridge  = "bridge"
	DriverMacvlan = "macvlan"
	DriverVeth    = "veth"
)

// File is the top-level structure of a topology descriptor file.
//
// Version 1 descriptors list each link as a plain sequence of endpoint
// strings. Version 2 descriptors list each link as an object with an
// explicit endpoints field plus optional driver fields.
type File struct {
	Version      int               `yaml:"version"`
	Prefix       string            `yaml:"prefix,omitempty"`
	Driver       string            `yaml:"driver,omitempty"` // topology-level default (v2)
	CEOSImage    string            `yaml:"ceos_image,omitempty"`
	CVPImage     string            `yaml:"cvp_image,omitempty"`
	HostImage    string            `yaml:"host_image,omitempty"`
	VRImage      string            `yaml:"vr_image,omitempty"`
	CustomImages map[string]string `yaml:"custom_images,omitempty"` // name fragment → image
	Publish      *PublishSpec      `yaml:"publish_base,omitempty"`
	ConfigDir    string            `yaml:"config_dir,omitempty"`
	Links        []LinkDef         `yaml:"links"`
}

// LinkDef is one link entry in either descriptor syntax.
type LinkDef struct {
	Endpoints  []string
	Driver     string
	DriverOpts map[string]string
}

// UnmarshalYAML accepts both syntaxes: a bare sequence of endpoint strings
// (version 1) or a mapping with endpoints/driver/driver_opts (version 2).
func (l *LinkDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&l.Endpoints)
	case yaml.MappingNode:
		var obj struct {
			Endpoints  []string          `yaml:"endpoints"`
			Driver     string            `yaml:"driver"`
			DriverOpts map[string]string `yaml:"driver_opts"`
		}
		if err := node.Decode(&obj); err != nil {
			return err
		}
		l.Endpoints = obj.Endpoints
		l.Driver = obj.Driver
		l.DriverOpts = obj.DriverOpts
		return nil
	default:
		return fmt.Errorf("link must be a sequence of endpoints or a link object (line %d)", node.Line)
	}
}

// PublishSpec describes how management ports are published to the host.
// It is either a single base port (internal 443/tcp published at
// base+index), or a mapping of internal port → external specification.
type PublishSpec struct {
	Base    int
	PortMap map[int]*ExternalPort // nil value = runtime-assigned ephemeral port
}

// ExternalPort is the external side of one published port: a fixed port,
// optionally bound to a specific host IP.
type ExternalPort struct {
	HostIP string
	Port   int
}

// UnmarshalYAML accepts a scalar base port or a mapping of internal port to
// external spec, where the external spec is an int, a [ip, port] pair, or
// null for an ephemeral port.
func (p *PublishSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&p.Base)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("publish_base must be a port number or a port mapping (line %d)", node.Line)
	}

	p.PortMap = make(map[int]*ExternalPort)
	for i := 0; i < len(node.Content); i += 2 {
		var internal int
		if err := node.Content[i].Decode(&internal); err != nil {
			return fmt.Errorf("publish_base: invalid internal port: %w", err)
		}
		ext, err := decodeExternalPort(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("publish_base: port %d: %w", internal, err)
		}
		p.PortMap[internal] = ext
	}
	return nil
}

func decodeExternalPort(node *yaml.Node) (*ExternalPort, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil // ephemeral
		}
		var port int
		if err := node.Decode(&port); err != nil {
			return nil, err
		}
		return &ExternalPort{Port: port}, nil
	case yaml.SequenceNode:
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("external spec must be [host-ip, port]")
		}
		var port int
		if _, err := fmt.Sscanf(pair[1], "%d", &port); err != nil {
			return nil, fmt.Errorf("invalid external port %q", pair[1])
		}
		return &ExternalPort{HostIP: pair[0], Port: port}, nil
	default:
		return nil, fmt.Errorf("external spec must be a port, [host-ip, port], or null")
	}
}
