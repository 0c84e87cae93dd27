// Package dynconf assembles the dynamic configuration document served to the
// reverse proxy from the routed containers found on the engine.
package dynconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the dynamic configuration of the proxy's HTTP provider.
type Document struct {
	HTTP HTTPConfiguration `json:"http" yaml:"http"`
}

// HTTPConfiguration holds routers and services keyed by name. Keys are
// rendered in byte-wise lexicographic order.
type HTTPConfiguration struct {
	Routers  map[string]Router  `json:"routers" yaml:"routers"`
	Services map[string]Service `json:"services" yaml:"services"`
}

// Router matches inbound requests by Rule and forwards them to Service.
type Router struct {
	Rule    string `json:"rule" yaml:"rule"`
	Service string `json:"service" yaml:"service"`
}

type Service struct {
	LoadBalancer LoadBalancer `json:"loadBalancer" yaml:"loadBalancer"`
}

type LoadBalancer struct {
	Servers []Server `json:"servers" yaml:"servers"`
}

type Server struct {
	URL string `json:"url" yaml:"url"`
}

// MarshalYAML emits routers and services as mappings sorted with
// sort.Strings, so "web-10" comes before "web-2".
func (c HTTPConfiguration) MarshalYAML() (interface{}, error) {
	routers, err := sortedMapping(c.Routers)
	if err != nil {
		return nil, err
	}
	services, err := sortedMapping(c.Services)
	if err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			stringNode("routers"), routers,
			stringNode("services"), services,
		},
	}, nil
}

func sortedMapping[V any](m map[string]V) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	if len(keys) == 0 {
		node.Style = yaml.FlowStyle
	}
	for _, k := range keys {
		value := &yaml.Node{}
		if err := value.Encode(m[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
		node.Content = append(node.Content, stringNode(k), value)
	}
	return node, nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// YAML renders the document in the proxy's YAML configuration format. Long
// rules are kept on a single line.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to serialize configuration to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize configuration to YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the document as JSON, which the proxy accepts as well.
func (d *Document) JSON() ([]byte, error) {
	out, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize configuration to JSON: %w", err)
	}
	return out, nil
}
