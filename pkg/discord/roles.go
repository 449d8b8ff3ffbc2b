package discord

import (
	"fmt"
	"sort"
)

// Rank is a staff rank derived from a Discord role.
type Rank struct {
	Name  string
	Level int
}

// RoleMap resolves Discord role ids to staff ranks and tracks the role
// marking retired staff.
type RoleMap struct {
	ranks         map[string]Rank
	mappings      []RoleMapping
	retiredRoleID string
}

// RoleMapping binds one Discord role id to a rank name and level.
type RoleMapping struct {
	RoleID string
	Name   string
	Level  int
}

// NewRoleMap builds a role map from explicit mappings.
func NewRoleMap(mappings []RoleMapping, retiredRoleID string) *RoleMap {
	ranks := make(map[string]Rank, len(mappings))
	for _, m := range mappings {
		ranks[m.RoleID] = Rank{Name: m.Name, Level: m.Level}
	}
	return &RoleMap{ranks: ranks, mappings: mappings, retiredRoleID: retiredRoleID}
}

// Validate checks that the mapping is injective. A role id bound to
// two ranks, a rank name bound to two role ids, or a retired role id
// shared with a rank would grant and revoke the wrong roles.
func (rm *RoleMap) Validate() error {
	seenIDs := make(map[string]string, len(rm.mappings))
	seenNames := make(map[string]string, len(rm.mappings))

	for _, m := range rm.mappings {
		if other, dup := seenIDs[m.RoleID]; dup {
			return fmt.Errorf("role id %s is mapped to both %s and %s", m.RoleID, other, m.Name)
		}
		seenIDs[m.RoleID] = m.Name

		if other, dup := seenNames[m.Name]; dup {
			return fmt.Errorf("rank %s is mapped to both role %s and %s", m.Name, other, m.RoleID)
		}
		seenNames[m.Name] = m.RoleID

		if rm.retiredRoleID != "" && m.RoleID == rm.retiredRoleID {
			return fmt.Errorf("retired role id %s collides with rank %s", rm.retiredRoleID, m.Name)
		}
	}

	return nil
}

// RetiredRoleID returns the role id applied to retired staff.
func (rm *RoleMap) RetiredRoleID() string {
	return rm.retiredRoleID
}

// RoleIDForRank returns the Discord role id backing a rank name.
func (rm *RoleMap) RoleIDForRank(name string) (string, bool) {
	for id, rank := range rm.ranks {
		if rank.Name == name {
			return id, true
		}
	}
	return "", false
}

// Resolve returns the highest staff rank among the given role ids.
// ok is false when none of the roles map to a rank.
func (rm *RoleMap) Resolve(roleIDs []string) (Rank, bool) {
	var best Rank
	found := false
	for _, id := range roleIDs {
		rank, isRank := rm.ranks[id]
		if !isRank {
			continue
		}
		if !found || rank.Level > best.Level {
			best = rank
			found = true
		}
	}
	return best, found
}

// Level returns the level of a rank name, or 0 when unknown.
func (rm *RoleMap) Level(name string) int {
	for _, rank := range rm.ranks {
		if rank.Name == name {
			return rank.Level
		}
	}
	return 0
}

// IsRetired reports whether the role ids include the retired role.
func (rm *RoleMap) IsRetired(roleIDs []string) bool {
	if rm.retiredRoleID == "" {
		return false
	}
	for _, id := range roleIDs {
		if id == rm.retiredRoleID {
			return true
		}
	}
	return false
}

// RankNames returns all rank names ordered highest level first.
func (rm *RoleMap) RankNames() []string {
	ranks := make([]Rank, 0, len(rm.ranks))
	for _, r := range rm.ranks {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i].Level > ranks[j].Level })
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = r.Name
	}
	return names
}
