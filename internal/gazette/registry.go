package gazette

import "strings"

// RegistryMode discriminates the two registry shapes.
type RegistryMode int

// Registry modes.
const (
	// FlatTerms is a plain ordered list of search terms with no addresses.
	FlatTerms RegistryMode = iota
	// Directory maps display names to notification addresses; matched names
	// additionally receive a personal notice.
	Directory
)

func (m RegistryMode) String() string {
	if m == FlatTerms {
		return "flat"
	}
	return "directory"
}

// RegistryEntry is one registry item. Address is empty in flat mode.
type RegistryEntry struct {
	Term    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
}

// TermRegistry is the configured set of search terms, an explicit tagged
// union instead of runtime shape-sniffing. Immutable for the duration of a
// run; entry order is preserved and drives match-result order.
type TermRegistry struct {
	mode    RegistryMode
	entries []RegistryEntry
}

// NewFlatRegistry builds a flat-mode registry. Blank terms are dropped and
// surrounding whitespace trimmed.
func NewFlatRegistry(terms []string) TermRegistry {
	entries := make([]RegistryEntry, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		entries = append(entries, RegistryEntry{Term: t})
	}
	return TermRegistry{mode: FlatTerms, entries: entries}
}

// NewDirectory builds a directory-mode registry preserving entry order.
// Entries with a blank name are dropped.
func NewDirectory(entries []RegistryEntry) TermRegistry {
	kept := make([]RegistryEntry, 0, len(entries))
	for _, e := range entries {
		e.Term = strings.TrimSpace(e.Term)
		e.Address = strings.TrimSpace(e.Address)
		if e.Term == "" {
			continue
		}
		kept = append(kept, e)
	}
	return TermRegistry{mode: Directory, entries: kept}
}

// Mode returns the registry variant.
func (r TermRegistry) Mode() RegistryMode { return r.mode }

// Entries returns the registry items in configuration order.
func (r TermRegistry) Entries() []RegistryEntry { return r.entries }

// Len returns the number of registry items.
func (r TermRegistry) Len() int { return len(r.entries) }

// AddressFor returns the notification address registered for term. Always
// false in flat mode.
func (r TermRegistry) AddressFor(term string) (string, bool) {
	if r.mode != Directory {
		return "", false
	}
	for _, e := range r.entries {
		if e.Term == term && e.Address != "" {
			return e.Address, true
		}
	}
	return "", false
}
