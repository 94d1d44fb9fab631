package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/framecast/internal/domain"
)

// PartitionsFile is the default manifest name.
const PartitionsFile = "partitions.yaml"

type manifest struct {
	Partitions []manifestEntry `yaml:"partitions"`
}

type manifestEntry struct {
	Label   string   `yaml:"label"`
	Role    string   `yaml:"role"`
	Command []string `yaml:"command,flow"`
}

// PartitionTable is a static partition table loaded from a YAML manifest.
type PartitionTable struct {
	parts []domain.Partition
}

// DefaultPartitionTable declares a selector and two application slots, each
// booting exe with the matching subcommand.
func DefaultPartitionTable(exe string) *PartitionTable {
	return &PartitionTable{parts: []domain.Partition{
		{Label: "factory", Role: domain.RoleSelector, Command: []string{exe, "selector"}},
		{Label: "ota_0", Role: domain.AppRole(0), Command: []string{exe, "run", "--partition", "ota_0"}},
		{Label: "ota_1", Role: domain.AppRole(1), Command: []string{exe, "run", "--partition", "ota_1"}},
	}}
}

// LoadPartitionTable reads and validates a manifest.
func LoadPartitionTable(path string) (*PartitionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read partition table: %w", err)
	}
	t, err := ParsePartitionTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParsePartitionTable decodes and validates manifest bytes.
func ParsePartitionTable(data []byte) (*PartitionTable, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse partition table: %w", domain.ErrInvalidConfig, err)
	}
	if len(m.Partitions) == 0 {
		return nil, fmt.Errorf("%w: partition table is empty", domain.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(m.Partitions))
	parts := make([]domain.Partition, 0, len(m.Partitions))
	for i, e := range m.Partitions {
		if e.Label == "" {
			return nil, fmt.Errorf("%w: partition %d has no label", domain.ErrInvalidConfig, i)
		}
		if seen[e.Label] {
			return nil, fmt.Errorf("%w: duplicate partition label %q", domain.ErrInvalidConfig, e.Label)
		}
		seen[e.Label] = true

		role := domain.Role(e.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: partition %q has unknown role %q", domain.ErrInvalidConfig, e.Label, e.Role)
		}
		if len(e.Command) == 0 {
			return nil, fmt.Errorf("%w: partition %q has no command", domain.ErrInvalidConfig, e.Label)
		}
		parts = append(parts, domain.Partition{Label: e.Label, Role: role, Command: e.Command})
	}
	return &PartitionTable{parts: parts}, nil
}

// Marshal encodes the table as a manifest.
func (t *PartitionTable) Marshal() ([]byte, error) {
	m := manifest{Partitions: make([]manifestEntry, 0, len(t.parts))}
	for _, p := range t.parts {
		m.Partitions = append(m.Partitions, manifestEntry{Label: p.Label, Role: string(p.Role), Command: p.Command})
	}
	return yaml.Marshal(&m)
}

// Partitions implements ports.PartitionTable.
func (t *PartitionTable) Partitions() ([]domain.Partition, error) {
	out := make([]domain.Partition, len(t.parts))
	copy(out, t.parts)
	return out, nil
}

// FindByRole implements ports.PartitionTable.
func (t *PartitionTable) FindByRole(role domain.Role) (domain.Partition, error) {
	for _, p := range t.parts {
		if p.Role == role {
			return p, nil
		}
	}
	return domain.Partition{}, fmt.Errorf("%w: no partition with role %q", domain.ErrPartitionNotFound, role)
}
