package service

import (
	"sort"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// PlatformMap translates WaWi platform identifiers into BI platform
// identifiers. Both systems share the platform identifier space, so the
// mapping is the identity restricted to platforms present in dim_platform.
// It is built once per run from freshly read BI state.
type PlatformMap struct {
	ids     map[int64]int64
	missing []int64
}

// NewPlatformMap builds the mapping from the WaWi platforms and the BI
// platforms read back after the dimension upsert.
func NewPlatformMap(source []models.WawiPlatform, target []models.Platform) *PlatformMap {
	m := &PlatformMap{ids: make(map[int64]int64, len(target))}
	for _, p := range target {
		m.ids[p.PlatformID] = p.PlatformID
	}
	for _, p := range source {
		if _, ok := m.ids[p.PlatformID]; !ok {
			m.missing = append(m.missing, p.PlatformID)
		}
	}
	return m
}

// Resolve returns the BI platform identifier for a WaWi platform identifier.
// ok is false when the platform is not materialized in the BI store.
func (m *PlatformMap) Resolve(wawiPlatformID int64) (biPlatformID int64, ok bool) {
	biPlatformID, ok = m.ids[wawiPlatformID]
	return biPlatformID, ok
}

// Len returns the number of resolvable platforms.
func (m *PlatformMap) Len() int {
	return len(m.ids)
}

// TargetIDs returns the BI platform identifiers in ascending order.
func (m *PlatformMap) TargetIDs() []int64 {
	ids := make([]int64, 0, len(m.ids))
	for _, id := range m.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Missing returns WaWi platforms that had no BI counterpart when the map was built.
func (m *PlatformMap) Missing() []int64 {
	return m.missing
}

// productSet is the set of product identifiers present in dim_product.
type productSet map[int64]struct{}

func newProductSet(ids []int64) productSet {
	s := make(productSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s productSet) contains(id int64) bool {
	_, ok := s[id]
	return ok
}
