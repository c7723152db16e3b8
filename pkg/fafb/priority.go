package fafb

import (
	"maps"
	"sort"
)

// Budget presets, in estimated tokens. Minimal covers identity plus the
// tech stack of a typical project, standard adds key files and
// architecture, full fits every core section of all but the largest
// descriptions.
const (
	BudgetMinimal  = 150
	BudgetStandard = 400
	BudgetFull     = 800
)

// Policy maps section types to load priorities. Types a policy does not
// mention fall back to the default tiers.
type Policy map[SectionType]Priority

var defaultTiers = Policy{
	SectionIdentity:     PriorityCritical,
	SectionTechStack:    PriorityHigh,
	SectionKeyFiles:     PriorityHigh,
	SectionArchitecture: PriorityMedium,
	SectionCommands:     PriorityMedium,
	SectionContext:      PriorityLow,
	SectionSyncMeta:     PriorityLow,
	SectionEmbeddings:   PriorityOptional,
	SectionTokenMap:     PriorityOptional,
	SectionModelHints:   PriorityOptional,
	SectionAttention:    PriorityOptional,
	SectionCustom:       PriorityOptional,
}

// DefaultPolicy returns a copy of the built-in tier assignments.
func DefaultPolicy() Policy {
	return maps.Clone(defaultTiers)
}

// For returns the priority the policy assigns to t.
func (p Policy) For(t SectionType) Priority {
	if pr, ok := p[t]; ok {
		return pr
	}
	if pr, ok := defaultTiers[t]; ok {
		return pr
	}
	return PriorityOptional
}

// Plan is the outcome of fitting a section table into a token budget.
type Plan struct {
	Selected []SectionEntry
	Skipped  []SectionEntry
	Tokens   int // estimated tokens across Selected
}

// PlanBudget decides which sections a budget-constrained load would read.
// Critical sections are always selected, whatever the budget. The rest
// are considered in descending priority order, ties broken by table
// order, and selection stops at the first section that does not fit:
// raising the budget can therefore only extend the loaded set, never
// swap its members.
func PlanBudget(entries []SectionEntry, budget int) Plan {
	picked := planIndices(entries, budget)
	plan := Plan{
		Selected: make([]SectionEntry, 0, len(picked)),
		Skipped:  make([]SectionEntry, 0, len(entries)-len(picked)),
	}
	selected := make(map[int]bool, len(picked))
	for _, i := range picked {
		selected[i] = true
		plan.Selected = append(plan.Selected, entries[i])
		plan.Tokens += entries[i].TokenEstimate()
	}
	for i, e := range entries {
		if !selected[i] {
			plan.Skipped = append(plan.Skipped, e)
		}
	}
	return plan
}

// planIndices returns the table indices a budget selects, in table order.
func planIndices(entries []SectionEntry, budget int) []int {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].Priority() > entries[order[b]].Priority()
	})

	picked := make([]int, 0, len(entries))
	used := 0
	for _, idx := range order {
		e := entries[idx]
		cost := e.TokenEstimate()
		if e.Priority() == PriorityCritical {
			picked = append(picked, idx)
			used += cost
			continue
		}
		if used+cost > budget {
			break
		}
		picked = append(picked, idx)
		used += cost
	}
	sort.Ints(picked)
	return picked
}
