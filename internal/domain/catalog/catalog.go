// Package catalog defines the fixed subject catalog the tracker operates on.
package catalog

import (
	"fmt"
	"strings"
)

// Subject is a tracked course with a fixed number of instructional videos.
type Subject struct {
	ID         string `json:"id" koanf:"id"`
	Name       string `json:"name" koanf:"name"`
	TotalUnits int    `json:"total_units" koanf:"total_units"`
}

// Catalog is an ordered, immutable set of subjects built once at startup.
type Catalog struct {
	subjects []Subject
	byID     map[string]Subject
}

// New builds a catalog from the given subjects. Every subject must carry a
// non-empty id and name and a positive unit total; ids must be unique.
func New(subjects []Subject) (*Catalog, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: no subjects", ErrInvalidSubject)
	}
	c := &Catalog{
		subjects: make([]Subject, 0, len(subjects)),
		byID:     make(map[string]Subject, len(subjects)),
	}
	for _, s := range subjects {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("%w: empty id or name", ErrInvalidSubject)
		}
		if s.TotalUnits <= 0 {
			return nil, fmt.Errorf("%w: subject %s has non-positive total", ErrInvalidSubject, s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate subject id %s", ErrInvalidSubject, s.ID)
		}
		c.subjects = append(c.subjects, s)
		c.byID[s.ID] = s
	}
	return c, nil
}

// All returns the subjects in catalog order.
func (c *Catalog) All() []Subject {
	out := make([]Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

// ByID looks up a subject. Returns ErrNotFound for unknown ids.
func (c *Catalog) ByID(id string) (Subject, error) {
	s, ok := c.byID[id]
	if !ok {
		return Subject{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Has reports whether the catalog contains the given subject id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of subjects.
func (c *Catalog) Len() int {
	return len(c.subjects)
}

// TotalUnits returns the sum of unit totals across all subjects.
func (c *Catalog) TotalUnits() int {
	total := 0
	for _, s := range c.subjects {
		total += s.TotalUnits
	}
	return total
}

// Default returns the built-in subject catalog.
func Default() *Catalog {
	c, err := New([]Subject{
		{ID: "os", Name: "Operating Systems", TotalUnits: 58},
		{ID: "arch", Name: "Computer Organization", TotalUnits: 69},
		{ID: "dsa", Name: "Data Structures", TotalUnits: 67},
		{ID: "algo", Name: "Algorithms", TotalUnits: 16},
		{ID: "linalg", Name: "Linear Algebra", TotalUnits: 42},
		{ID: "discrete", Name: "Discrete Math", TotalUnits: 42},
	})
	if err != nil {
		panic(err) // static data; unreachable
	}
	return c
}
