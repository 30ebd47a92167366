package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Plan is a membership plan from the static catalog.
type Plan struct {
	ID           string  `mapstructure:"id" json:"id"`
	DisplayName  string  `mapstructure:"name" json:"name"`
	DurationDays int     `mapstructure:"duration_days" json:"durationDays"`
	Price        float64 `mapstructure:"price" json:"price"`
}

// PlanCatalog is an immutable, ordered lookup table of plans.
type PlanCatalog struct {
	plans []Plan
	byID  map[string]int
}

// NewPlanCatalog validates the plans and builds a catalog preserving their order.
func NewPlanCatalog(plans []Plan) (*PlanCatalog, error) {
	if len(plans) == 0 {
		return nil, errors.New("plan catalog cannot be empty")
	}
	c := &PlanCatalog{
		plans: make([]Plan, len(plans)),
		byID:  make(map[string]int, len(plans)),
	}
	copy(c.plans, plans)
	for i, p := range c.plans {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.DisplayName) == "" {
			return nil, fmt.Errorf("plan #%d: id and name are required", i)
		}
		if p.DurationDays <= 0 {
			return nil, fmt.Errorf("plan %q: duration must be positive", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("plan %q declared twice", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// Lookup returns the plan with the given id.
func (c *PlanCatalog) Lookup(id string) (Plan, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i], true
}

// Default is the first plan of the catalog.
func (c *PlanCatalog) Default() Plan {
	return c.plans[0]
}

// All returns a copy of the catalog in declaration order.
func (c *PlanCatalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// ExpiryFrom returns now + plan duration.
func (p Plan) ExpiryFrom(now time.Time) time.Time {
	return now.AddDate(0, 0, p.DurationDays)
}

// DefaultPlans mirrors the plans table of the hosted backend.
func DefaultPlans() []Plan {
	return []Plan{
		{ID: "p1", DisplayName: "Mensal", DurationDays: 30, Price: 79.90},
		{ID: "p2", DisplayName: "Trimestral", DurationDays: 90, Price: 219.90},
		{ID: "p3", DisplayName: "Anual", DurationDays: 365, Price: 799.90},
	}
}
