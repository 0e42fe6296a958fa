package floorplan

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// UnitKind distinguishes a single table from a table group.
type UnitKind string

const (
	UnitTable UnitKind = "table"
	UnitGroup UnitKind = "group"
)

// Unit is anything a booking can be seated at: a table or a table group, with its
// effective capacity range and the physical tables it occupies.
type Unit struct {
	Kind             UnitKind    `json:"kind"`
	ID               uuid.UUID   `json:"id"`
	AreaID           uuid.UUID   `json:"area_id"`
	Name             string      `json:"name"`
	MinCapacity      int         `json:"min_capacity"`
	MaxCapacity      int         `json:"max_capacity"`
	TableIDs         []uuid.UUID `json:"table_ids"`
	IsOnlineBookable bool        `json:"is_online_bookable"`
	AssignPriority   int         `json:"assign_priority"`
	SortOrder        int         `json:"sort_order"`
	LastAssignedAt   *time.Time  `json:"last_assigned_at,omitempty"`
}

// Fits reports whether the unit's capacity range covers partySize.
func (u Unit) Fits(partySize int) bool {
	return partySize >= u.MinCapacity && partySize <= u.MaxCapacity
}

// Floor is a snapshot of one location's bookable units.
type Floor struct {
	LocationID uuid.UUID
	Areas      map[uuid.UUID]Area
	Units      []Unit
}

// NewFloor builds a snapshot from stored rows. Inactive areas, inactive tables and groups
// with an inactive member are left out. Groups must satisfy the capacity invariant.
func NewFloor(locationID uuid.UUID, areas []Area, tables []Table, groups []TableGroup) (*Floor, error) {
	f := &Floor{LocationID: locationID, Areas: make(map[uuid.UUID]Area, len(areas))}
	for _, a := range areas {
		if a.IsActive {
			f.Areas[a.ID] = a
		}
	}

	for _, t := range tables {
		if !t.IsActive {
			continue
		}
		if _, ok := f.Areas[t.AreaID]; !ok {
			continue
		}
		if err := ValidateTable(&t); err != nil {
			return nil, err
		}
		f.Units = append(f.Units, Unit{
			Kind:             UnitTable,
			ID:               t.ID,
			AreaID:           t.AreaID,
			Name:             t.Name,
			MinCapacity:      t.MinCapacity,
			MaxCapacity:      t.MaxCapacity,
			TableIDs:         []uuid.UUID{t.ID},
			IsOnlineBookable: t.IsOnlineBookable,
			AssignPriority:   t.AssignPriority,
			SortOrder:        t.SortOrder,
			LastAssignedAt:   t.LastAssignedAt,
		})
	}

groups:
	for _, g := range groups {
		if !g.IsActive {
			continue
		}
		if _, ok := f.Areas[g.AreaID]; !ok {
			continue
		}
		ids := make([]uuid.UUID, 0, len(g.Tables))
		for _, t := range g.Tables {
			if !t.IsActive {
				continue groups
			}
			ids = append(ids, t.ID)
		}
		minCap, maxCap, err := GroupCapacity(g.Tables, g.ExtraSeats)
		if err != nil {
			return nil, err
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		f.Units = append(f.Units, Unit{
			Kind:             UnitGroup,
			ID:               g.ID,
			AreaID:           g.AreaID,
			Name:             g.Name,
			MinCapacity:      minCap,
			MaxCapacity:      maxCap,
			TableIDs:         ids,
			IsOnlineBookable: g.IsOnlineBookable,
			AssignPriority:   g.AssignPriority,
			SortOrder:        g.SortOrder,
			LastAssignedAt:   g.LastAssignedAt,
		})
	}
	return f, nil
}

// Seats sums the max capacity of single tables whose area passes the filter. Groups are
// not counted, they reuse the same physical tables.
func (f *Floor) Seats(areaAllowed func(uuid.UUID) bool) int {
	total := 0
	for _, u := range f.Units {
		if u.Kind == UnitTable && areaAllowed(u.AreaID) {
			total += u.MaxCapacity
		}
	}
	return total
}

// Unit looks a bookable unit up by kind and id.
func (f *Floor) Unit(kind UnitKind, id uuid.UUID) (Unit, bool) {
	for _, u := range f.Units {
		if u.Kind == kind && u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}
