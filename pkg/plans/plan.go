package plans

import (
	"fmt"
	"time"
)

// Money represents a monetary amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`   // cents for USD
	Currency string `json:"currency"` // ISO 4217
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// Limits holds the per-category bounds of a plan.
type Limits map[Category]Limit

// Plan describes a subscription tier.
type Plan struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	MonthlyPrice Money  `json:"monthly_price"`
	TrialDays    int    `json:"trial_days"`
	Limits       Limits `json:"limits"`
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// Limit returns the bound for a category.
func (p Plan) Limit(c Category) Limit {
	return p.Limits[c]
}

// catalog is ordered by ascending price; Next relies on that order.
var catalog = []Plan{
	{
		ID:           Starter,
		Name:         "Starter",
		Description:  "Perfect for small businesses getting started with AI customer support",
		MonthlyPrice: Money{Amount: 4900, Currency: "USD"},
		TrialDays:    14,
		Limits: Limits{
			Conversations: Finite(1000),
			DataSources:   Finite(2),
			Users:         Finite(3),
		},
	},
	{
		ID:           Professional,
		Name:         "Professional",
		Description:  "Ideal for growing businesses with higher volume needs",
		MonthlyPrice: Money{Amount: 14900, Currency: "USD"},
		TrialDays:    14,
		Limits: Limits{
			Conversations: Finite(10000),
			DataSources:   Finite(10),
			Users:         Finite(10),
		},
	},
	{
		ID:           Enterprise,
		Name:         "Enterprise",
		Description:  "For large organizations with custom requirements",
		MonthlyPrice: Money{Amount: 49900, Currency: "USD"},
		TrialDays:    14,
		Limits: Limits{
			Conversations: Unlimited(),
			DataSources:   Unlimited(),
			Users:         Unlimited(),
		},
	},
}

// All returns every plan in ascending price order. The result is a copy.
func All() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		out[i] = clonePlan(p)
	}
	return out
}

// Get returns the plan for id. IDs outside the closed set panic: they can only
// come from a conversion that bypassed ParseID.
func Get(id ID) Plan {
	for _, p := range catalog {
		if p.ID == id {
			return clonePlan(p)
		}
	}
	panic(fmt.Sprintf("plans: %q is not in the catalog", id))
}

// LimitsFor returns the per-category limits of a plan.
func LimitsFor(id ID) Limits {
	return Get(id).Limits
}

// Next returns the tier directly above id, used as the upgrade target.
// ok is false for the top tier.
func Next(id ID) (Plan, bool) {
	for i, p := range catalog {
		if p.ID == id && i+1 < len(catalog) {
			return clonePlan(catalog[i+1]), true
		}
	}
	return Plan{}, false
}

func clonePlan(p Plan) Plan {
	limits := make(Limits, len(p.Limits))
	for c, l := range p.Limits {
		limits[c] = l
	}
	p.Limits = limits
	return p
}

// LimitChange describes how one category limit changes between plans.
type LimitChange struct {
	From Limit `json:"from"`
	To   Limit `json:"to"`
}

// Comparison contains the limit differences between two plans.
// Used to validate downgrades and to describe upgrades to users.
type Comparison struct {
	Increased map[Category]LimitChange
	Decreased map[Category]LimitChange
}

// HasDecreases reports whether any limit shrinks.
func (c Comparison) HasDecreases() bool {
	return len(c.Decreased) > 0
}

// Compare returns the limit differences between current and target plans.
func Compare(current, target ID) Comparison {
	from, to := Get(current), Get(target)
	cmp := Comparison{
		Increased: make(map[Category]LimitChange),
		Decreased: make(map[Category]LimitChange),
	}

	for _, c := range Categories {
		a, b := from.Limit(c), to.Limit(c)
		if a == b {
			continue
		}
		change := LimitChange{From: a, To: b}

		// unlimited-to-limited counts as a decrease
		switch {
		case a.IsUnlimited():
			cmp.Decreased[c] = change
		case b.IsUnlimited():
			cmp.Increased[c] = change
		case b.n > a.n:
			cmp.Increased[c] = change
		default:
			cmp.Decreased[c] = change
		}
	}

	return cmp
}
