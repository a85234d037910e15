package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/briangreenhill/fpldash/pkg/fetch"
)

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Match    string `yaml:"match"` // prefixes separated by "|"
	Priority int    `yaml:"priority"`
	TTL      string `yaml:"ttl"`
	Mode     string `yaml:"mode"`
	Bypass   bool   `yaml:"bypass"`
}

// LoadRules reads per-resource cache rules from a YAML file. An empty path
// yields no rules.
func LoadRules(path string) (fetch.Rules, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(b)
}

// ParseRules decodes a rules document.
func ParseRules(b []byte) (fetch.Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	var out fetch.Rules
	for i, r := range f.Rules {
		base := fetch.Rule{Priority: r.Priority, NoCache: r.Bypass}
		if r.TTL != "" {
			d, err := time.ParseDuration(r.TTL)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].ttl: %w", i, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("rules[%d].ttl must be positive", i)
			}
			base.TTL = d
		}
		if r.Mode != "" {
			m, ok := fetch.ParseCacheMode(r.Mode)
			if !ok {
				return nil, fmt.Errorf("rules[%d].mode: unknown mode %q", i, r.Mode)
			}
			base.Mode, base.HasMode = m, true
		}

		n := 0
		for _, p := range strings.Split(r.Match, "|") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			rule := base
			rule.Prefix = strings.TrimLeft(p, "/")
			out = append(out, rule)
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("rules[%d].match: no prefixes", i)
		}
	}
	return out.Sorted(), nil
}
