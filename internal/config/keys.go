package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Get returns the value at a dotted key such as "networks.eth.rpc".
// Lists are joined with commas.
func Get(c *Config, key string) (string, error) {
	root, err := document(c)
	if err != nil {
		return "", err
	}
	node, err := lookup(root, key)
	if err != nil {
		return "", err
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.SequenceNode:
		values := make([]string, len(node.Content))
		for i, item := range node.Content {
			values[i] = item.Value
		}
		return strings.Join(values, ","), nil
	default:
		return "", gwerr.WithSuggestion(gwerr.ErrInvalidInput, fmt.Sprintf("%s is a section; name one of its keys", key))
	}
}

// Set assigns value to a dotted key and validates the result. c is left
// unchanged when the value does not fit the key or fails validation.
func Set(c *Config, key, value string) error {
	root, err := document(c)
	if err != nil {
		return err
	}
	node, err := lookup(root, key)
	if err != nil {
		return err
	}

	switch node.Kind {
	case yaml.ScalarNode:
		node.Value = value
		node.Style = 0
	case yaml.SequenceNode:
		node.Content = node.Content[:0]
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: item})
			}
		}
	default:
		return gwerr.WithSuggestion(gwerr.ErrInvalidInput, fmt.Sprintf("%s is a section; name one of its keys", key))
	}

	next := &Config{}
	if err := root.Decode(next); err != nil {
		return invalid(key, value)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// document renders c as a YAML mapping node.
func document(c *Config) (*yaml.Node, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Content[0], nil
}

func lookup(root *yaml.Node, key string) (*yaml.Node, error) {
	node := root
	for _, part := range strings.Split(key, ".") {
		next := child(node, part)
		if next == nil {
			return nil, gwerr.WithDetails(gwerr.ErrNotFound, map[string]string{"key": key})
		}
		node = next
	}
	return node, nil
}

func child(node *yaml.Node, name string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return node.Content[i+1]
		}
	}
	return nil
}
