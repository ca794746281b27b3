package filter

import (
	"testing"
	"time"

	"maraude-bknd/internal/models"
)

func recurring(day int) *models.MaraudeAction {
	return &models.MaraudeAction{IsRecurring: true, DayOfWeek: &day, Status: models.StatusPlanned}
}

func oneOff(date time.Time) *models.MaraudeAction {
	return &models.MaraudeAction{ScheduledDate: &date, Status: models.StatusPlanned}
}

func TestMatchesDay(t *testing.T) {
	wednesday := recurring(3)

	t.Run("recurring action matches when its day is selected", func(t *testing.T) {
		if !MatchesDay(wednesday, []int{1, 3}) {
			t.Error("expected dayOfWeek=3 to match selection [1,3]")
		}
	})

	t.Run("recurring action excluded when its day is not selected", func(t *testing.T) {
		if MatchesDay(wednesday, []int{2}) {
			t.Error("expected dayOfWeek=3 to be excluded by selection [2]")
		}
	})

	t.Run("empty selection matches everything", func(t *testing.T) {
		if !MatchesDay(wednesday, nil) {
			t.Error("expected empty selection to match recurring action")
		}
		if !MatchesDay(&models.MaraudeAction{}, nil) {
			t.Error("expected empty selection to match unscheduled action")
		}
	})

	t.Run("one-off action matches on the weekday of its date", func(t *testing.T) {
		// 2026-09-02 is a Wednesday.
		a := oneOff(time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
		if !MatchesDay(a, []int{3}) {
			t.Error("expected Wednesday date to match day 3")
		}
		if MatchesDay(a, []int{1, 2}) {
			t.Error("expected Wednesday date to be excluded by [1,2]")
		}
	})

	t.Run("sunday maps to 7", func(t *testing.T) {
		// 2026-09-06 is a Sunday.
		a := oneOff(time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC))
		if !MatchesDay(a, []int{7}) {
			t.Error("expected Sunday date to match day 7")
		}
	})

	t.Run("action with neither day nor date is excluded by a day filter", func(t *testing.T) {
		if MatchesDay(&models.MaraudeAction{}, []int{1}) {
			t.Error("expected unscheduled action to be excluded")
		}
	})
}

func TestMatchesMaraude(t *testing.T) {
	a := recurring(3)

	t.Run("status filter excludes mismatches", func(t *testing.T) {
		if MatchesMaraude(a, State{MaraudeStatus: models.StatusCompleted}) {
			t.Error("planned action should not pass a completed filter")
		}
		if !MatchesMaraude(a, State{MaraudeStatus: models.StatusPlanned}) {
			t.Error("planned action should pass a planned filter")
		}
	})

	t.Run("empty status means no filter", func(t *testing.T) {
		if !MatchesMaraude(a, State{}) {
			t.Error("expected unfiltered state to pass")
		}
	})

	t.Run("status and day combine", func(t *testing.T) {
		s := State{MaraudeStatus: models.StatusPlanned, SelectedDays: []int{2}}
		if MatchesMaraude(a, s) {
			t.Error("expected day mismatch to exclude despite status match")
		}
	})
}

func TestMatchesMerchant(t *testing.T) {
	active := &models.Merchant{Category: models.CategoryCafe, IsActive: true}
	inactive := &models.Merchant{Category: models.CategoryCafe, IsActive: false}

	t.Run("inactive merchants never pass", func(t *testing.T) {
		if MatchesMerchant(inactive, State{}) {
			t.Error("inactive merchant should be excluded")
		}
	})

	t.Run("no category filter passes any active merchant", func(t *testing.T) {
		if !MatchesMerchant(active, State{}) {
			t.Error("active merchant should pass with no filter")
		}
	})

	t.Run("category filter requires equality", func(t *testing.T) {
		if !MatchesMerchant(active, State{MerchantCategory: models.CategoryCafe}) {
			t.Error("matching category should pass")
		}
		if MatchesMerchant(active, State{MerchantCategory: models.CategoryBakery}) {
			t.Error("mismatched category should be excluded")
		}
	})
}

func TestFilterSlices(t *testing.T) {
	actions := []*models.MaraudeAction{recurring(1), recurring(3), recurring(6)}
	merchants := []*models.Merchant{
		{Category: models.CategoryCafe, IsActive: true},
		{Category: models.CategoryBakery, IsActive: true},
		{Category: models.CategoryCafe, IsActive: false},
	}

	got := Maraudes(actions, State{SelectedDays: []int{1, 3}})
	if len(got) != 2 {
		t.Errorf("expected 2 actions, got %d", len(got))
	}

	gotM := Merchants(merchants, State{MerchantCategory: models.CategoryCafe})
	if len(gotM) != 1 {
		t.Errorf("expected 1 merchant, got %d", len(gotM))
	}
}
