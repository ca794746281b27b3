// Package filter holds the pure predicates the map view applies to already
// fetched maraude and merchant sets. Filters never re-query the backend.
package filter

import (
	"maraude-bknd/internal/models"
)

// State is the user-selected visibility state for the map.
type State struct {
	ShowMaraudes     bool   `json:"showMaraudes"`
	ShowMerchants    bool   `json:"showMerchants"`
	MaraudeStatus    string `json:"maraudeStatus"`    // empty = no status filter
	MerchantCategory string `json:"merchantCategory"` // empty = no category filter
	SelectedDays     []int  `json:"selectedDays"`     // 1=Monday .. 7=Sunday; empty = no day filter
}

// DefaultState shows everything with no filters applied.
func DefaultState() State {
	return State{ShowMaraudes: true, ShowMerchants: true}
}

// MatchesDay reports whether the action falls on one of the selected days.
// An empty selection matches everything. A recurring action matches on its
// weekly day; a one-off action matches on the weekday of its scheduled date.
// An action with neither is excluded once a day filter is set.
func MatchesDay(action *models.MaraudeAction, selectedDays []int) bool {
	if len(selectedDays) == 0 {
		return true
	}

	var day int
	switch {
	case action.IsRecurring && action.DayOfWeek != nil:
		day = *action.DayOfWeek
	case !action.IsRecurring && action.ScheduledDate != nil:
		day = models.ISOWeekday(*action.ScheduledDate)
	default:
		return false
	}

	for _, d := range selectedDays {
		if d == day {
			return true
		}
	}
	return false
}

// MatchesMaraude applies the status and day filters to one action.
func MatchesMaraude(action *models.MaraudeAction, s State) bool {
	if s.MaraudeStatus != "" && action.Status != s.MaraudeStatus {
		return false
	}
	return MatchesDay(action, s.SelectedDays)
}

// MatchesMerchant passes active merchants matching the category filter, if any.
func MatchesMerchant(m *models.Merchant, s State) bool {
	if !m.IsActive {
		return false
	}
	return s.MerchantCategory == "" || m.Category == s.MerchantCategory
}

// Maraudes returns the subset of actions passing the current filters.
func Maraudes(actions []*models.MaraudeAction, s State) []*models.MaraudeAction {
	out := make([]*models.MaraudeAction, 0, len(actions))
	for _, a := range actions {
		if MatchesMaraude(a, s) {
			out = append(out, a)
		}
	}
	return out
}

// Merchants returns the subset of merchants passing the current filters.
func Merchants(merchants []*models.Merchant, s State) []*models.Merchant {
	out := make([]*models.Merchant, 0, len(merchants))
	for _, m := range merchants {
		if MatchesMerchant(m, s) {
			out = append(out, m)
		}
	}
	return out
}
