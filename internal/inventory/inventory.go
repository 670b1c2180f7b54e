// Package inventory builds item-quantity snapshots of inventory scopes and
// diffs them. Everything here is pure; callers own when snapshots are taken.
package inventory

import (
	"fmt"
	"sort"
)

type ItemID int64

// Scope names a group of inventory containers the host can enumerate.
type Scope string

const (
	ScopeBags        Scope = "bags"
	ScopeBank        Scope = "bank"
	ScopeReagentBank Scope = "reagent_bank"
	ScopeWarbandBank Scope = "warband_bank"
	ScopeGuildBank   Scope = "guild_bank"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeBags, ScopeBank, ScopeReagentBank, ScopeWarbandBank, ScopeGuildBank:
		return true
	}
	return false
}

// Slot is one occupied inventory slot as reported by the host.
type Slot struct {
	ItemID   ItemID `json:"item_id"`
	Link     string `json:"link,omitempty"`
	Quantity int    `json:"quantity"`
}

// Source enumerates slots for a scope.
type Source interface {
	Inventory(scope Scope) []Slot
}

type Entry struct {
	Quantity int
	Link     string
}

// Map is an item-quantity snapshot keyed by item identity.
type Map map[ItemID]Entry

// Build folds slots into a Map. Empty and non-positive slots are skipped and
// the first link seen for an item is kept as its representative.
func Build(slots ...[]Slot) Map {
	m := Map{}
	for _, group := range slots {
		for _, s := range group {
			if s.ItemID == 0 || s.Quantity <= 0 {
				continue
			}
			e := m[s.ItemID]
			e.Quantity += s.Quantity
			if e.Link == "" {
				e.Link = s.Link
			}
			m[s.ItemID] = e
		}
	}
	return m
}

// Snapshot enumerates every scope from src and builds one Map.
func Snapshot(src Source, scopes ...Scope) Map {
	groups := make([][]Slot, 0, len(scopes))
	for _, sc := range scopes {
		groups = append(groups, src.Inventory(sc))
	}
	return Build(groups...)
}

func (m Map) Quantity(id ItemID) int {
	return m[id].Quantity
}

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal compares quantities key by key; links are not compared.
func (m Map) Equal(o Map) bool {
	for k, v := range m {
		if v.Quantity != o[k].Quantity {
			return false
		}
	}
	for k, v := range o {
		if v.Quantity != m[k].Quantity {
			return false
		}
	}
	return true
}

type Direction int

const (
	Removed Direction = iota + 1
	Added
)

func (d Direction) String() string {
	switch d {
	case Removed:
		return "removed"
	case Added:
		return "added"
	default:
		return "unknown"
	}
}

// Change is one item whose quantity moved between two snapshots. Quantity is
// always positive; Direction carries the sign.
type Change struct {
	ItemID    ItemID
	Link      string
	Quantity  int
	Direction Direction
}

// Diff reports every item whose quantity differs between before and after.
// Output is sorted by direction (removed first) then item id, so the same
// inputs always produce the same slice.
func Diff(before, after Map) []Change {
	var out []Change
	for id, b := range before {
		if a := after[id].Quantity; a < b.Quantity {
			out = append(out, Change{ItemID: id, Link: b.Link, Quantity: b.Quantity - a, Direction: Removed})
		}
	}
	for id, a := range after {
		if b := before[id].Quantity; b < a.Quantity {
			link := a.Link
			if link == "" {
				link = before[id].Link
			}
			out = append(out, Change{ItemID: id, Link: link, Quantity: a.Quantity - b, Direction: Added})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Direction != out[j].Direction {
			return out[i].Direction < out[j].Direction
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Apply returns a copy of m with changes applied. Applying the inverse of
// Diff(before, after) to after reproduces before.
func Apply(m Map, changes []Change) (Map, error) {
	out := m.Clone()
	for _, c := range changes {
		if c.Quantity <= 0 {
			return nil, fmt.Errorf("inventory: non-positive change quantity %d for item %d", c.Quantity, c.ItemID)
		}
		e := out[c.ItemID]
		switch c.Direction {
		case Added:
			e.Quantity += c.Quantity
			if e.Link == "" {
				e.Link = c.Link
			}
		case Removed:
			if e.Quantity < c.Quantity {
				return nil, fmt.Errorf("inventory: removing %d of item %d, only %d present", c.Quantity, c.ItemID, e.Quantity)
			}
			e.Quantity -= c.Quantity
		default:
			return nil, fmt.Errorf("inventory: unknown direction %d", c.Direction)
		}
		if e.Quantity == 0 {
			delete(out, c.ItemID)
			continue
		}
		out[c.ItemID] = e
	}
	return out, nil
}

// Invert flips every change's direction.
func Invert(changes []Change) []Change {
	out := make([]Change, len(changes))
	for i, c := range changes {
		c.Direction = Added + Removed - c.Direction
		out[i] = c
	}
	return out
}

// Filter keeps changes moving in direction d.
func Filter(changes []Change, d Direction) []Change {
	var out []Change
	for _, c := range changes {
		if c.Direction == d {
			out = append(out, c)
		}
	}
	return out
}
