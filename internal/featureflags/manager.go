// Package featureflags evaluates rollout flags declared in configuration.
// Flags come in as a comma-separated list, e.g.
// "new_composer=on,story_music=25%,legacy_feed=off".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// flag is the parsed form of one configured value. Percent rollouts keep
// the raw text too so Raw can reproduce the configuration.
type flag struct {
	raw     string
	on      bool
	percent int // 0..100, only meaningful when rollout is true
	rollout bool
}

// Manager holds the parsed flag set. A nil Manager evaluates everything to
// off, so callers never need a guard.
type Manager struct {
	flags map[string]flag
}

// NewManager parses a comma-separated flag list. Malformed pairs are
// skipped rather than rejected; a flag that cannot be parsed must not take
// the service down.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]flag)}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		name = canon(name)
		value = canon(value)
		if name == "" || value == "" {
			continue
		}
		m.flags[name] = parseValue(value)
	}
	return m
}

func parseValue(value string) flag {
	f := flag{raw: value}
	switch value {
	case "on", "true", "1":
		f.on = true
	case "off", "false", "0":
	default:
		if pct, ok := strings.CutSuffix(value, "%"); ok {
			if n, err := strconv.Atoi(pct); err == nil {
				f.rollout = true
				f.percent = n
			}
		}
	}
	return f
}

// Enabled reports whether the named flag is on for the given user.
// Percentage rollouts bucket the user deterministically, so one user's
// answer never flaps between requests.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	f, ok := m.flags[canon(name)]
	if !ok {
		return false
	}
	if !f.rollout {
		return f.on
	}
	switch {
	case f.percent <= 0:
		return false
	case f.percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(canon(name), userID) < f.percent
}

// Raw returns a copy of the configured flag values as written.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for name, f := range m.flags {
		out[name] = f.raw
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket maps (flag, user) onto 0..99. FNV keeps it stable across
// processes, which percentage rollouts rely on.
func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte(":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
