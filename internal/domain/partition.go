package domain

import (
	"fmt"
	"strings"
)

// Role identifies what a partition is for.
type Role string

// RoleSelector is the factory image that runs the boot arbitration stage.
const RoleSelector Role = "selector"

// AppRole returns the role of the i-th application partition: app-a, app-b, ...
func AppRole(i int) Role {
	return Role(fmt.Sprintf("app-%c", 'a'+i))
}

// Valid reports whether r is the selector role or an app-<letter> role.
func (r Role) Valid() bool {
	if r == RoleSelector {
		return true
	}
	s := string(r)
	return len(s) == 5 && strings.HasPrefix(s, "app-") && s[4] >= 'a' && s[4] <= 'z'
}

// Partition is one bootable image declared in the partition table.
type Partition struct {
	Label string
	Role  Role

	// Command is the argv that boots this image on a host.
	Command []string
}

// BootSelection is the persisted next-boot pointer. The zero value selects
// the selector partition.
type BootSelection struct {
	Label string

	// Sequence increases with every write so the newest record can be told
	// apart from a stale copy.
	Sequence uint64
}
