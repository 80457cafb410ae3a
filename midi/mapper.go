package midi

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-vizmix/params"
	"go-vizmix/store"
)

const valuesKey = "midi:values"

// Change is delivered to subscribers after a CC value has been committed.
// The scaled value is already stored when a subscriber sees it, so reading
// back through the mapper never observes a stale value.
type Change struct {
	CC         int
	Scaled     float64
	Raw        int
	Normalized float64
	Mapping    CCMapping
}

type activeValue struct {
	value     float64
	updatedAt time.Time
}

// Mapper owns the fixed control bank and the per-CC active value state.
// Mapping definitions are fixed code; only the active values persist.
type Mapper struct {
	mappings map[int]CCMapping

	mu          sync.RWMutex
	values      map[int]activeValue
	subscribers []func(Change)

	st  *store.Store
	log *logrus.Entry
}

// NewMapper builds the 64 default mappings and an empty value state.
func NewMapper(st *store.Store) *Mapper {
	return &Mapper{
		mappings: defaultMappings(),
		values:   make(map[int]activeValue),
		st:       st,
		log:      logrus.WithField("component", "mapper"),
	}
}

// Subscribe registers a change listener. Subscribers accumulate; adding one
// never displaces another.
func (m *Mapper) Subscribe(fn func(Change)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// Mapping returns the fixed descriptor for a CC.
func (m *Mapper) Mapping(cc int) (CCMapping, bool) {
	mp, ok := m.mappings[cc]
	return mp, ok
}

// HandleCC scales a 7-bit value into the CC's range, commits it, and then
// notifies subscribers. CCs outside the bank are ignored even though the
// controller already filters them.
func (m *Mapper) HandleCC(cc, raw int) {
	if !InRange(cc) {
		return
	}
	mapping, ok := m.mappings[cc]
	if !ok {
		return
	}
	if raw < 0 {
		raw = 0
	} else if raw > 127 {
		raw = 127
	}

	scaled := mapping.Scale(raw)

	m.mu.Lock()
	m.values[cc] = activeValue{value: scaled, updatedAt: time.Now()}
	subs := make([]func(Change), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	change := Change{
		CC:         cc,
		Scaled:     scaled,
		Raw:        raw,
		Normalized: float64(raw) / 127.0,
		Mapping:    mapping,
	}
	for _, fn := range subs {
		fn(change)
	}
}

// Value returns the active value for a CC, or ok=false if it has never
// received a message or been defaulted.
func (m *Mapper) Value(cc int) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[cc]
	return v.value, ok
}

// ResetToDefaults writes every mapping's default as its active value.
func (m *Mapper) ResetToDefaults() {
	m.mu.Lock()
	now := time.Now()
	for cc, mapping := range m.mappings {
		m.values[cc] = activeValue{value: mapping.Default, updatedAt: now}
	}
	m.mu.Unlock()
}

// ResetCC writes a single mapping's default as its active value.
func (m *Mapper) ResetCC(cc int) {
	mapping, ok := m.mappings[cc]
	if !ok {
		return
	}
	m.mu.Lock()
	m.values[cc] = activeValue{value: mapping.Default, updatedAt: time.Now()}
	m.mu.Unlock()
}

// MappingStatus is a fixed descriptor annotated with its current value.
type MappingStatus struct {
	CCMapping
	Current float64
	Set     bool
}

// Mappings lists all 64 mappings in CC order, annotated with the current
// active value (falling back to the default when unset).
func (m *Mapper) Mappings() []MappingStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]MappingStatus, 0, len(m.mappings))
	for cc, mapping := range m.mappings {
		st := MappingStatus{CCMapping: mapping, Current: mapping.Default}
		if v, ok := m.values[cc]; ok {
			st.Current = v.value
			st.Set = true
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CC < out[j].CC })
	return out
}

// ByCategory lists the mappings in one category, in CC order.
func (m *Mapper) ByCategory(cat params.Category) []MappingStatus {
	all := m.Mappings()
	out := all[:0:0]
	for _, st := range all {
		if st.Category == cat {
			out = append(out, st)
		}
	}
	return out
}

// Categories lists the categories present in the bank, in CC order of first
// appearance.
func (m *Mapper) Categories() []params.Category {
	seen := make(map[params.Category]bool)
	var out []params.Category
	for _, st := range m.Mappings() {
		if !seen[st.Category] {
			seen[st.Category] = true
			out = append(out, st.Category)
		}
	}
	return out
}

// ApplyDefaults pushes every mapping's default into the parameter state.
// Used at startup before any persisted values load.
func (m *Mapper) ApplyDefaults(state *params.State) {
	for _, mapping := range m.mappings {
		state.Set(mapping.Target, mapping.Default)
	}
}

// SaveValues persists the active value table.
func (m *Mapper) SaveValues() error {
	m.mu.RLock()
	doc := make(map[string]float64, len(m.values))
	for cc, v := range m.values {
		doc[strconv.Itoa(cc)] = v.value
	}
	m.mu.RUnlock()

	if err := m.st.Save(valuesKey, doc); err != nil {
		m.log.WithError(err).Warn("save CC values failed")
		return err
	}
	return nil
}

// LoadValues restores the active value table. On failure the in-memory
// state is left unchanged.
func (m *Mapper) LoadValues() error {
	var doc map[string]float64
	ok, err := m.st.Load(valuesKey, &doc)
	if err != nil {
		m.log.WithError(err).Warn("load CC values failed")
		return err
	}
	if !ok {
		return nil
	}

	m.mu.Lock()
	now := time.Now()
	for key, value := range doc {
		cc, err := strconv.Atoi(key)
		if err != nil || !InRange(cc) {
			continue
		}
		m.values[cc] = activeValue{value: value, updatedAt: now}
	}
	m.mu.Unlock()
	return nil
}

// ExportEntry is one CC's row in the portable document.
type ExportEntry struct {
	Value  float64 `json:"value"`
	Name   string  `json:"name"`
	Target string  `json:"target"`
}

// ExportDoc is the portable active-value document, keyed by CC number.
type ExportDoc map[string]ExportEntry

// Export produces a portable document of the CCs that have active values.
func (m *Mapper) Export() ExportDoc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc := make(ExportDoc, len(m.values))
	for cc, v := range m.values {
		mapping := m.mappings[cc]
		doc[strconv.Itoa(cc)] = ExportEntry{
			Value:  v.value,
			Name:   mapping.Name,
			Target: mapping.Target.Path(),
		}
	}
	return doc
}

// Import loads a portable document. Entries with CC numbers outside the
// bank are skipped, not treated as errors.
func (m *Mapper) Import(doc ExportDoc) {
	m.mu.Lock()
	now := time.Now()
	for key, e := range doc {
		cc, err := strconv.Atoi(key)
		if err != nil || !InRange(cc) {
			m.log.WithField("cc", key).Debug("import: skipping out-of-range CC")
			continue
		}
		if _, ok := m.mappings[cc]; !ok {
			continue
		}
		m.values[cc] = activeValue{value: e.Value, updatedAt: now}
	}
	m.mu.Unlock()
}
