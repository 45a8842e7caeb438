package notices

import "context"

// Catalog resolves notices known to the server by id.
type Catalog interface {
	Lookup(ctx context.Context, id string) (Notice, bool, error)
}

// StaticCatalog is an in-memory catalog keyed by sanitised id.
type StaticCatalog struct {
	order []string
	byID  map[string]Notice
}

// NewStaticCatalog indexes records by sanitised id. Later duplicates replace
// earlier ones; records without a usable id are skipped.
func NewStaticCatalog(records []Notice) *StaticCatalog {
	c := &StaticCatalog{byID: make(map[string]Notice, len(records))}
	for _, record := range records {
		id := SanitizeID(record.ID)
		if id == "" {
			continue
		}
		record.ID = id
		if _, exists := c.byID[id]; !exists {
			c.order = append(c.order, id)
		}
		c.byID[id] = record
	}
	return c
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(_ context.Context, id string) (Notice, bool, error) {
	if c == nil {
		return Notice{}, false, nil
	}
	record, ok := c.byID[SanitizeID(id)]
	return record, ok, nil
}

// All returns the records in declaration order.
func (c *StaticCatalog) All() []Notice {
	if c == nil {
		return nil
	}
	out := make([]Notice, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
