package richtext

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Supported node types.
const (
	NodeHeader    = "header"
	NodeParagraph = "paragraph"
	NodeList      = "list"
	NodeQuote     = "quote"
	NodeCode      = "code"
	NodeImage     = "image"
)

// ProfileFull allows every supported node type; ProfileBasic is the reduced
// set used for short fragments (item descriptions, captions).
const (
	ProfileFull  = "full"
	ProfileBasic = "basic"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile names the subset of node types permitted when rendering a given
// document instance.
type Profile struct {
	Name  string
	nodes map[string]bool
}

// Allows reports whether the profile permits the given node type.
func (p Profile) Allows(nodeType string) bool {
	return p.nodes[nodeType]
}

type profileFile struct {
	Profiles []struct {
		Name  string   `yaml:"name"`
		Nodes []string `yaml:"nodes"`
	} `yaml:"profiles"`
}

var profiles = mustLoadProfiles()

func mustLoadProfiles() map[string]Profile {
	var pf profileFile
	if err := yaml.Unmarshal(profilesYAML, &pf); err != nil {
		panic(fmt.Sprintf("richtext: invalid embedded profiles.yaml: %v", err))
	}

	loaded := make(map[string]Profile, len(pf.Profiles))
	for _, entry := range pf.Profiles {
		nodes := make(map[string]bool, len(entry.Nodes))
		for _, n := range entry.Nodes {
			nodes[n] = true
		}
		loaded[entry.Name] = Profile{Name: entry.Name, nodes: nodes}
	}

	if _, ok := loaded[ProfileBasic]; !ok {
		panic("richtext: embedded profiles.yaml is missing the basic profile")
	}
	return loaded
}

// ProfileByName resolves a profile tag. Unknown tags fall back to the basic
// profile rather than failing, so a bad tag can never widen the allow-list.
func ProfileByName(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles[ProfileBasic]
}
