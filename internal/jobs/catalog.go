package jobs

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Entry pairs a role name with its job-description text.
type Entry struct {
	Role        string `yaml:"role" mapstructure:"role"`
	Description string `yaml:"description" mapstructure:"description"`
}

// Catalog is a read-only mapping from role name to job-description text.
// Role order is preserved for presentation.
type Catalog struct {
	roles  []string
	byRole map[string]string
}

// Builtin returns the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	var entries []Entry
	if err := yaml.Unmarshal(builtinCatalog, &entries); err != nil {
		return nil, fmt.Errorf("parsing builtin job catalog: %w", err)
	}
	return fromEntries(entries)
}

// FromConfig builds a catalog from a raw configuration value (a list of
// role/description maps, as produced by viper). It replaces the builtin
// catalog entirely when present.
func FromConfig(raw any) (*Catalog, error) {
	var entries []Entry
	if err := mapstructure.Decode(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding job catalog override: %w", err)
	}
	return fromEntries(entries)
}

func fromEntries(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("job catalog is empty")
	}

	c := &Catalog{byRole: make(map[string]string, len(entries))}
	for _, e := range entries {
		role := strings.TrimSpace(e.Role)
		description := strings.TrimSpace(e.Description)
		if role == "" || description == "" {
			return nil, fmt.Errorf("job catalog entry with empty role or description")
		}
		if _, exists := c.byRole[role]; exists {
			return nil, fmt.Errorf("duplicate role %q in job catalog", role)
		}
		c.roles = append(c.roles, role)
		c.byRole[role] = description
	}

	return c, nil
}

// Get returns the job description for a role name.
func (c *Catalog) Get(role string) (string, bool) {
	description, ok := c.byRole[strings.TrimSpace(role)]
	return description, ok
}

// Roles lists role names in catalog order.
func (c *Catalog) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}
