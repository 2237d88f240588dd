// Package featureflags evaluates rollout switches configured as a
// comma-separated list, e.g. "scrape_news=on,view_tracking=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Flags known to the service.
const (
	ScrapeNews   = "scrape_news"
	ViewTracking = "view_tracking"
)

// Setting is one parsed flag value. Percent is 0 when Rollout is false.
type Setting struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	On      bool   `json:"on"`
	Rollout bool   `json:"rollout"`
	Percent int    `json:"percent,omitempty"`
}

// Set holds the current flag settings and can be replaced at runtime.
type Set struct {
	mu       sync.RWMutex
	settings map[string]Setting
}

// Parse builds a Set. Malformed pairs are skipped and reported together in
// the returned error; the Set is usable either way.
func Parse(raw string) (*Set, error) {
	settings := make(map[string]Setting)
	var bad []string
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name, value = normalize(name), normalize(value)
		if !ok || name == "" || value == "" {
			bad = append(bad, pair)
			continue
		}
		s, err := parseValue(name, value)
		if err != nil {
			bad = append(bad, pair)
			continue
		}
		settings[name] = s
	}

	set := &Set{settings: settings}
	if len(bad) > 0 {
		return set, fmt.Errorf("featureflags: ignored malformed entries %q", bad)
	}
	return set, nil
}

func parseValue(name, value string) (Setting, error) {
	s := Setting{Name: name, Value: value}
	switch value {
	case "on", "true", "1":
		s.On = true
		return s, nil
	case "off", "false", "0":
		return s, nil
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return s, fmt.Errorf("unknown value %q", value)
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return s, err
	}
	s.Rollout = true
	s.Percent = min(max(pct, 0), 100)
	return s, nil
}

// Enabled reports whether name is on for userID. Unknown flags are off.
// Percentage rollouts bucket users deterministically; anonymous callers
// only see a rollout at 100%.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	setting, ok := s.settings[normalize(name)]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if !setting.Rollout {
		return setting.On
	}
	switch {
	case setting.Percent <= 0:
		return false
	case setting.Percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(setting.Name, userID) < setting.Percent
}

// Update replaces one flag value at runtime.
func (s *Set) Update(name, value string) error {
	name, value = normalize(name), normalize(value)
	if name == "" {
		return fmt.Errorf("featureflags: empty flag name")
	}
	setting, err := parseValue(name, value)
	if err != nil {
		return fmt.Errorf("featureflags: %s: %w", name, err)
	}
	s.mu.Lock()
	s.settings[name] = setting
	s.mu.Unlock()
	return nil
}

// Settings lists every configured flag sorted by name.
func (s *Set) Settings() []Setting {
	s.mu.RLock()
	out := make([]Setting, 0, len(s.settings))
	for _, v := range s.settings {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot evaluates every flag for one user.
func (s *Set) Snapshot(userID uint) map[string]bool {
	settings := s.Settings()
	out := make(map[string]bool, len(settings))
	for _, v := range settings {
		out[v.Name] = s.Enabled(v.Name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", name, userID)
	return int(h.Sum32() % 100)
}
