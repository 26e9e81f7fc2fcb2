package plugin

import "fmt"

// Metadata describes a venue adapter's identity, the chains/venues it
// backs, and which action Kinds it can dispatch.
type Metadata struct {
	ID           string
	Name         string
	Version      string
	Kinds        []Kind
	Chains       []string
	Description  string
	Dependencies []string
	APIVersion   string
}

// Validate ensures metadata values satisfy invariants.
func (m Metadata) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("adapter id is required")
	}
	if len(m.Kinds) == 0 {
		return fmt.Errorf("adapter %q must declare at least one action kind", m.ID)
	}
	if m.Name == "" {
		return fmt.Errorf("adapter name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("adapter version is required")
	}
	return nil
}

// SupportsKind reports whether the adapter declares support for k.
func (m Metadata) SupportsKind(k Kind) bool {
	for _, candidate := range m.Kinds {
		if candidate == k {
			return true
		}
	}
	return false
}
