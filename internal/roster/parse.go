package roster

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	keyPairs          = "pairs"
	keyEmail          = "email"
	keyDomain         = "domain"
	keyEmailAddresses = "email_addresses"
)

// Parse validates a YAML authors document:
//
//	pairs:
//	  jd: Jane Doe
//	email:
//	  domain: example.com
//	email_addresses:
//	  jd: jane@example.com
//
// Unknown top-level keys are ignored. A null email or email_addresses
// section counts as absent; a null pairs section does not.
func Parse(data []byte) (*Roster, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("invalid YAML: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed("document is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, malformed("top level must be a mapping")
	}

	r := &Roster{}
	seen := map[string]bool{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if seen[key.Value] {
			return nil, malformed("duplicate key %q on line %d", key.Value, key.Line)
		}
		seen[key.Value] = true

		switch key.Value {
		case keyPairs:
			pairs, err := stringMap(keyPairs, value, false)
			if err != nil {
				return nil, err
			}
			r.pairs = pairs
		case keyEmailAddresses:
			addrs, err := stringMap(keyEmailAddresses, value, true)
			if err != nil {
				return nil, err
			}
			r.emailAddresses = addrs
		case keyEmail:
			domain, err := emailDomain(value)
			if err != nil {
				return nil, err
			}
			r.emailDomain = domain
		}
	}

	if !seen[keyPairs] {
		return nil, malformed("missing %q section", keyPairs)
	}
	if r.emailAddresses == nil {
		r.emailAddresses = map[string]string{}
	}
	return r, nil
}

func stringMap(section string, node *yaml.Node, nullable bool) (map[string]string, error) {
	if nullable && isNull(node) {
		return map[string]string{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, malformed("%q must be a mapping of initials to strings (line %d)", section, node.Line)
	}

	out := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isString(key) || key.Value == "" {
			return nil, malformed("%q has an invalid initials key on line %d", section, key.Line)
		}
		if _, dup := out[key.Value]; dup {
			return nil, malformed("%q lists %q twice (line %d)", section, key.Value, key.Line)
		}
		if !isString(value) || value.Value == "" {
			return nil, malformed("%q entry %q must be a non-empty string (line %d)", section, key.Value, value.Line)
		}
		out[key.Value] = value.Value
	}
	return out, nil
}

func emailDomain(node *yaml.Node) (string, error) {
	if isNull(node) {
		return "", nil
	}
	if node.Kind != yaml.MappingNode {
		return "", malformed("%q must be a mapping (line %d)", keyEmail, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value != keyDomain {
			continue
		}
		if isNull(value) {
			return "", nil
		}
		if !isString(value) {
			return "", malformed("%s.%s must be a string (line %d)", keyEmail, keyDomain, value.Line)
		}
		return value.Value, nil
	}
	return "", nil
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRosterMalformed, fmt.Sprintf(format, args...))
}
