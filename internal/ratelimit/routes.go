package ratelimit

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rule bounds requests within a window.
type Rule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// DefaultRule applies to routes without a configured prefix.
var DefaultRule = Rule{Limit: 60, Window: time.Minute}

type routeRule struct {
	Prefix string
	Rule
}

// Routes resolves a request path to its rule: exact match first, then the
// longest configured prefix, then the default.
type Routes struct {
	rules    []routeRule
	fallback Rule
}

// DefaultRoutes is the built-in table.
func DefaultRoutes() *Routes {
	return NewRoutes(map[string]Rule{
		"/api/leads": {Limit: 5, Window: time.Minute},
		"/api":       {Limit: 30, Window: time.Minute},
	}, DefaultRule)
}

func NewRoutes(rules map[string]Rule, fallback Rule) *Routes {
	r := &Routes{fallback: fallback}
	for prefix, rule := range rules {
		r.rules = append(r.rules, routeRule{Prefix: prefix, Rule: rule})
	}
	sort.Slice(r.rules, func(i, j int) bool {
		if len(r.rules[i].Prefix) != len(r.rules[j].Prefix) {
			return len(r.rules[i].Prefix) > len(r.rules[j].Prefix)
		}
		return r.rules[i].Prefix < r.rules[j].Prefix
	})
	return r
}

func (r *Routes) Match(route string) Rule {
	for _, rr := range r.rules {
		if rr.Prefix == route {
			return rr.Rule
		}
	}
	for _, rr := range r.rules {
		if strings.HasPrefix(route, rr.Prefix) {
			return rr.Rule
		}
	}
	return r.fallback
}

type routesFile struct {
	Default *Rule           `yaml:"default"`
	Routes  map[string]Rule `yaml:"routes"`
}

// LoadRoutes reads a YAML route table:
//
//	default: {limit: 60, window: 1m}
//	routes:
//	  /api/leads: {limit: 5, window: 1m}
func LoadRoutes(path string) (*Routes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}

	fallback := DefaultRule
	if f.Default != nil {
		fallback = *f.Default
	}
	if err := validateRule("default", fallback); err != nil {
		return nil, err
	}
	for prefix, rule := range f.Routes {
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route %q: must start with /", prefix)
		}
		if err := validateRule(prefix, rule); err != nil {
			return nil, err
		}
	}
	return NewRoutes(f.Routes, fallback), nil
}

func validateRule(name string, r Rule) error {
	if r.Limit <= 0 {
		return fmt.Errorf("route %q: limit must be positive", name)
	}
	if r.Window <= 0 {
		return fmt.Errorf("route %q: window must be positive", name)
	}
	return nil
}
