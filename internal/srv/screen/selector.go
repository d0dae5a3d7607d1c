package screen

import (
	"strings"
)

// Selector is the user's screen selection: a comma separated list of screen
// names or aliases. A single token without comma also selects every screen
// whose name is part of it, so "Screen1Screen3" still selects both.
type Selector struct {
	raw    string
	all    bool
	tokens map[string]bool
}

func ParseSelector(s string) *Selector {
	sel := &Selector{
		raw:    strings.ToLower(strings.TrimSpace(s)),
		tokens: make(map[string]bool),
	}
	for _, token := range strings.Split(sel.raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "*" || token == "all" {
			sel.all = true
		}
		sel.tokens[token] = true
	}
	return sel
}

func (s *Selector) Match(e Entry) bool {
	if s == nil {
		return false
	}
	if s.all {
		return true
	}
	for _, name := range []string{e.Name, e.Alias} {
		if name == "" {
			continue
		}
		name = strings.ToLower(name)
		if s.tokens[name] {
			return true
		}
		if !strings.Contains(s.raw, ",") && s.raw != "" && strings.Contains(s.raw, name) {
			return true
		}
	}
	return false
}

// IsEmpty tells if the selection can't match anything
func (s *Selector) IsEmpty() bool {
	return s == nil || (!s.all && len(s.tokens) == 0)
}

func (s *Selector) String() string {
	if s == nil {
		return ""
	}
	return s.raw
}
