// Package clash reads and writes Clash configuration documents.
package clash

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"chiaotu/internal/domain"
)

// Document is a Clash configuration. Top-level keys other than proxies,
// proxy-groups and rules are carried through Extra untouched in value but
// not in formatting or key order.
type Document struct {
	Proxies     []Proxy        `yaml:"proxies"`
	ProxyGroups []Group        `yaml:"proxy-groups"`
	Rules       []string       `yaml:"rules"`
	Extra       map[string]any `yaml:",inline"`
}

// Proxy is one entry of the proxies list. Only the name is interpreted.
type Proxy struct {
	Name   string         `yaml:"name"`
	Fields map[string]any `yaml:",inline"`
}

// Key is the identity used for deduplication.
func (p Proxy) Key() string {
	return p.Name
}

// Renamed returns a copy of p with a new name. Fields are shared.
func (p Proxy) Renamed(name string) Proxy {
	p.Name = name
	return p
}

type Group struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Proxies  []string `yaml:"proxies"`
	URL      string   `yaml:"url,omitempty"`
	Timeout  int      `yaml:"timeout,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
}

func GroupFromDomain(g domain.Group) Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return Group{
		Name:     g.Name,
		Type:     string(g.Kind),
		Proxies:  members,
		URL:      g.TestURL,
		Timeout:  g.Timeout,
		Interval: g.Interval,
	}
}

func GroupsFromDomain(groups []domain.Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupFromDomain(g))
	}
	return out
}

var errEmptyDocument = errors.New("empty document")

// Decode parses a Clash document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode clash document: %w", err)
	}
	return &doc, nil
}

// DecodeProxies parses data as a Clash document that lists proxies. It fails
// for anything else, including YAML that happens to parse as a plain string,
// which is how base64 subscription bodies look to a YAML parser.
func DecodeProxies(data []byte) ([]Proxy, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode clash document: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, errEmptyDocument
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.New("document is not a mapping")
	}

	var doc struct {
		Proxies *[]Proxy `yaml:"proxies"`
	}
	if err := top.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode proxies: %w", err)
	}
	if doc.Proxies == nil {
		return nil, errors.New("document has no proxies key")
	}
	return *doc.Proxies, nil
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	if d.Proxies == nil {
		d.Proxies = []Proxy{}
	}
	if d.ProxyGroups == nil {
		d.ProxyGroups = []Group{}
	}
	if d.Rules == nil {
		d.Rules = []string{}
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode clash document: %w", err)
	}
	return data, nil
}
