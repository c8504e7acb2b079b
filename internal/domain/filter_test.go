package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestBuildBeerFilter_OnlySuppliedCriteria(t *testing.T) {
	cases := []struct {
		name     string
		criteria domain.BeerCriteria
		want     []domain.PredicateKind
	}{
		{name: "none", criteria: domain.BeerCriteria{}, want: nil},
		{name: "empty name", criteria: domain.BeerCriteria{Name: ""}, want: nil},
		{name: "whitespace name is a fragment", criteria: domain.BeerCriteria{Name: "  "}, want: []domain.PredicateKind{domain.PredicateNameContains}},
		{name: "name", criteria: domain.BeerCriteria{Name: "IPA"}, want: []domain.PredicateKind{domain.PredicateNameContains}},
		{name: "style", criteria: domain.BeerCriteria{Style: domain.BeerStyleIPA}, want: []domain.PredicateKind{domain.PredicateStyleEquals}},
		{
			name:     "both",
			criteria: domain.BeerCriteria{Name: "IPA", Style: domain.BeerStyleIPA},
			want:     []domain.PredicateKind{domain.PredicateNameContains, domain.PredicateStyleEquals},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preds := domain.BuildBeerFilter(tc.criteria).Predicates()
			if len(preds) != len(tc.want) {
				t.Fatalf("predicates=%+v, want kinds %v", preds, tc.want)
			}
			for i, kind := range tc.want {
				if preds[i].Kind != kind {
					t.Fatalf("predicate %d kind=%v, want %v", i, preds[i].Kind, kind)
				}
			}
		})
	}
}

func TestBeerFilter_Matches(t *testing.T) {
	mangoIPA := domain.Beer{Name: "Mango Bobs IPA", Style: domain.BeerStyleIPA}
	ipaAle := domain.Beer{Name: "Sorry Im not an ipa", Style: domain.BeerStyleAle}
	stout := domain.Beer{Name: "Crank", Style: domain.BeerStyleStout}

	cases := []struct {
		name     string
		criteria domain.BeerCriteria
		beer     domain.Beer
		want     bool
	}{
		{name: "empty filter matches everything", criteria: domain.BeerCriteria{}, beer: stout, want: true},
		{name: "name substring case-insensitive", criteria: domain.BeerCriteria{Name: "iPa"}, beer: mangoIPA, want: true},
		{name: "name mismatch", criteria: domain.BeerCriteria{Name: "IPA"}, beer: stout, want: false},
		{name: "inner spaces are literal", criteria: domain.BeerCriteria{Name: " bobs "}, beer: mangoIPA, want: true},
		{name: "leading space is not trimmed", criteria: domain.BeerCriteria{Name: " Mango"}, beer: mangoIPA, want: false},
		{name: "trailing space is not trimmed", criteria: domain.BeerCriteria{Name: "IPA "}, beer: mangoIPA, want: false},
		{name: "style exact", criteria: domain.BeerCriteria{Style: domain.BeerStyleIPA}, beer: mangoIPA, want: true},
		{name: "style mismatch", criteria: domain.BeerCriteria{Style: domain.BeerStyleIPA}, beer: ipaAle, want: false},
		{name: "and: both hold", criteria: domain.BeerCriteria{Name: "ipa", Style: domain.BeerStyleIPA}, beer: mangoIPA, want: true},
		{name: "and: style fails", criteria: domain.BeerCriteria{Name: "ipa", Style: domain.BeerStyleIPA}, beer: ipaAle, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.BuildBeerFilter(tc.criteria).Matches(tc.beer); got != tc.want {
				t.Fatalf("Matches()=%v, want %v", got, tc.want)
			}
		})
	}
}
