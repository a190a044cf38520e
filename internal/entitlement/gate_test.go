package entitlement

import (
	"testing"

	"github.com/shariastocks-in/backend/internal/models"
)

func TestRowVisibility_FreeBlursBeyondCutoff(t *testing.T) {
	for index := 0; index < 6; index++ {
		got := RowVisibility(models.PlanFree, index)
		want := VisibilityBlurred
		if index < FreeVisibleRows {
			want = VisibilityVisible
		}
		if got != want {
			t.Fatalf("free plan index %d: expected %s, got %s", index, want, got)
		}
	}
}

func TestRowVisibility_PaidSeesAll(t *testing.T) {
	for _, plan := range []models.PlanID{models.PlanBasic, models.PlanPremium} {
		for index := 0; index < 20; index++ {
			if got := RowVisibility(plan, index); got != VisibilityVisible {
				t.Fatalf("%s plan index %d: expected visible, got %s", plan, index, got)
			}
		}
	}
}

func TestCanAccessWatchlist(t *testing.T) {
	if CanAccessWatchlist(models.PlanFree) {
		t.Fatal("free plan must not access watchlist")
	}
	if !CanAccessWatchlist(models.PlanBasic) {
		t.Fatal("basic plan must access watchlist")
	}
	if !CanAccessWatchlist(models.PlanPremium) {
		t.Fatal("premium plan must access watchlist")
	}
}
