package core

import "strings"

// AliasKind selects which alias map a lookup goes through.
type AliasKind int

const (
	// AliasUser resolves friendly names to Spotify usernames.
	AliasUser AliasKind = iota
	// AliasDevice resolves friendly names to Spotify device names.
	AliasDevice
)

// AliasResolver maps configured alias strings to canonical names. Resolution
// is total: an unmapped name is returned unchanged, since callers may already
// supply canonical names.
type AliasResolver struct {
	users   map[string]string
	devices map[string]string
}

func NewAliasResolver(cfg *AliasConfig) *AliasResolver {
	r := &AliasResolver{
		users:   make(map[string]string, len(cfg.Users)),
		devices: make(map[string]string, len(cfg.Devices)),
	}

	// Keys are folded once here so lookups are case-insensitive.
	for alias, name := range cfg.Users {
		r.users[foldAlias(alias)] = name
	}
	for alias, name := range cfg.Devices {
		r.devices[foldAlias(alias)] = name
	}

	return r
}

// Resolve returns the canonical name for raw, or raw itself (trimmed) when no
// alias is configured.
func (r *AliasResolver) Resolve(kind AliasKind, raw string) string {
	trimmed := strings.TrimSpace(raw)

	var m map[string]string
	switch kind {
	case AliasUser:
		m = r.users
	case AliasDevice:
		m = r.devices
	default:
		return trimmed
	}

	if canonical, ok := m[foldAlias(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

func foldAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
