package domain

import (
	"errors"
	"testing"
)

func TestLink_UpdatesBothSides(t *testing.T) {
	beer := Beer{ID: "beer-1"}
	category := Category{ID: "cat-1"}

	if !Link(&beer, &category) {
		t.Fatal("expected first link to report a change")
	}
	if !beer.Categories.Has("cat-1") || !category.Beers.Has("beer-1") {
		t.Fatalf("link is not symmetric: beer=%v category=%v", beer.Categories, category.Beers)
	}
	if Link(&beer, &category) {
		t.Fatal("expected repeated link to be a no-op")
	}
	if err := CheckLink(beer, category); err != nil {
		t.Fatalf("unexpected invariant error: %v", err)
	}
}

func TestUnlink_RemovesBeerFromCategoryAndCategoryFromBeer(t *testing.T) {
	beer := Beer{ID: "beer-1", Categories: NewIDSet("cat-1", "cat-2")}
	category := Category{ID: "cat-1", Beers: NewIDSet("beer-1", "beer-2")}

	if !Unlink(&beer, &category) {
		t.Fatal("expected unlink to report a change")
	}
	if beer.Categories.Has("cat-1") {
		t.Fatal("category must be removed from the beer")
	}
	if category.Beers.Has("beer-1") {
		t.Fatal("beer must be removed from the category")
	}
	// Чужие связи не затрагиваются.
	if !beer.Categories.Has("cat-2") || !category.Beers.Has("beer-2") {
		t.Fatalf("unrelated links were touched: beer=%v category=%v", beer.Categories, category.Beers)
	}
	if Unlink(&beer, &category) {
		t.Fatal("expected repeated unlink to be a no-op")
	}
}

func TestCheckLink_DetectsAsymmetry(t *testing.T) {
	beer := Beer{ID: "beer-1", Categories: NewIDSet("cat-1")}
	category := Category{ID: "cat-1"}

	err := CheckLink(beer, category)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestBeerClone_IsIndependent(t *testing.T) {
	beer := Beer{ID: "beer-1", QuantityOnHand: Int32Ptr(5), Categories: NewIDSet("cat-1")}
	clone := beer.Clone()

	*clone.QuantityOnHand = 0
	clone.Categories.Add("cat-2")

	if *beer.QuantityOnHand != 5 || beer.Categories.Has("cat-2") {
		t.Fatalf("clone mutated the source: %+v", beer)
	}
}
