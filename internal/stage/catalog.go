// Package stage holds the ordered stage catalog that drives task
// generation and predecessor gating.
package stage

import (
	"fmt"
	"sort"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/gorm"
)

// Catalog is an immutable snapshot of the stage definitions, ordered by
// OrderIndex. Load a fresh one after an administrative update.
type Catalog struct {
	stages []models.Stage
	byKey  map[string]int
}

// NewCatalog builds a catalog from stage rows. Two active stages sharing an
// order index are rejected, since the predecessor relation would be
// ambiguous.
func NewCatalog(stages []models.Stage) (*Catalog, error) {
	sorted := make([]models.Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OrderIndex != sorted[j].OrderIndex {
			return sorted[i].OrderIndex < sorted[j].OrderIndex
		}
		return sorted[i].Key < sorted[j].Key
	})

	c := &Catalog{stages: sorted, byKey: make(map[string]int, len(sorted))}
	activeOrder := make(map[int]string)
	for i, st := range sorted {
		if st.Key == "" {
			return nil, fmt.Errorf("stage: catalog: stage at position %d has no key", i)
		}
		if _, dup := c.byKey[st.Key]; dup {
			return nil, fmt.Errorf("stage: catalog: duplicate key %q", st.Key)
		}
		c.byKey[st.Key] = i
		if !st.IsActive {
			continue
		}
		if other, dup := activeOrder[st.OrderIndex]; dup {
			return nil, fmt.Errorf("stage: catalog: active stages %q and %q share order_index %d", other, st.Key, st.OrderIndex)
		}
		activeOrder[st.OrderIndex] = st.Key
	}
	return c, nil
}

// Load reads every stage from the store into a catalog.
func Load(db *gorm.DB) (*Catalog, error) {
	var stages []models.Stage
	if err := db.Order("order_index ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("stage: load: %w", err)
	}
	return NewCatalog(stages)
}

// All returns every stage, active or not, in order.
func (c *Catalog) All() []models.Stage {
	out := make([]models.Stage, len(c.stages))
	copy(out, c.stages)
	return out
}

// Active returns the active stages in order.
func (c *Catalog) Active() []models.Stage {
	var out []models.Stage
	for _, st := range c.stages {
		if st.IsActive {
			out = append(out, st)
		}
	}
	return out
}

// Get returns the stage with the given key.
func (c *Catalog) Get(key string) (models.Stage, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return models.Stage{}, false
	}
	return c.stages[i], true
}

// OrderMap maps each active stage key to its order index. Tasks of a
// deactivated or deleted stage are absent, so they neither gate nor are
// gated.
func (c *Catalog) OrderMap() map[string]int {
	m := make(map[string]int, len(c.stages))
	for _, st := range c.stages {
		if st.IsActive {
			m[st.Key] = st.OrderIndex
		}
	}
	return m
}
