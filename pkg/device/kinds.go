package device

import (
	"sort"
	"strings"
)

// Kind is the closed set of device variants.
type Kind string

const (
	// KindCEOS is the full network-OS image, the default for unmatched names.
	KindCEOS Kind = "ceos"
	// KindHost is a generic linux host container.
	KindHost Kind = "host"
	// KindCVP is the lab-controller image.
	KindCVP Kind = "cvp"
	// KindVR is a vrnetlab-style virtual router image.
	KindVR Kind = "vr"
	// KindCustom is an arbitrary image from the descriptor's custom table.
	KindCustom Kind = "custom"
)

type kindRule struct {
	fragment string
	kind     Kind
}

// kindRules maps hostname fragments to device kinds. Evaluated in order,
// first match wins; new vendor variants are rows here, not code branches.
var kindRules = []kindRule{
	{"cvp", KindCVP},
	{"vmx", KindVR},
	{"csr", KindVR},
	{"xrv", KindVR},
	{"vqfx", KindVR},
}

// KindForName infers the device kind from a hostname. The ordered rule
// table is consulted first, then the descriptor's custom-image table
// (keys in sorted order for determinism), then the generic-host fragment;
// anything else is the primary network OS. Returns the custom image when
// the custom table matched.
func KindForName(hostname string, customImages map[string]string) (Kind, string) {
	for _, rule := range kindRules {
		if strings.Contains(hostname, rule.fragment) {
			return rule.kind, ""
		}
	}

	fragments := make([]string, 0, len(customImages))
	for fragment := range customImages {
		fragments = append(fragments, fragment)
	}
	sort.Strings(fragments)
	for _, fragment := range fragments {
		if strings.Contains(hostname, fragment) {
			return KindCustom, customImages[fragment]
		}
	}

	if strings.Contains(hostname, "host") {
		return KindHost, ""
	}
	return KindCEOS, ""
}

// PublishesMgmt reports whether this kind exposes a management service and
// therefore takes part in published-port assignment.
func (k Kind) PublishesMgmt() bool {
	return k == KindCEOS || k == KindVR
}
