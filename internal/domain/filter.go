package domain

import "strings"

// PredicateKind: тег предиката фильтра.
type PredicateKind int

const (
	// PredicateNameContains: подстрока имени без учёта регистра.
	PredicateNameContains PredicateKind = iota + 1
	// PredicateStyleEquals: точное совпадение стиля.
	PredicateStyleEquals
)

// Predicate: один критерий фильтра. Хранилище переводит его в условие своего скана.
type Predicate struct {
	Kind  PredicateKind
	Value string
}

// BeerCriteria: необязательные критерии списка. Пустое значение означает "не задано".
type BeerCriteria struct {
	Name  string
	Style BeerStyle
}

// BeerFilter: конъюнкция заданных предикатов. Пустой фильтр пропускает всё.
type BeerFilter struct {
	predicates []Predicate
}

// BuildBeerFilter добавляет в фильтр только переданные критерии.
// Фрагмент имени берётся как есть, включая пробелы; отсутствует только пустая строка.
func BuildBeerFilter(c BeerCriteria) BeerFilter {
	var f BeerFilter
	if c.Name != "" {
		f.predicates = append(f.predicates, Predicate{Kind: PredicateNameContains, Value: c.Name})
	}
	if c.Style != "" {
		f.predicates = append(f.predicates, Predicate{Kind: PredicateStyleEquals, Value: string(c.Style)})
	}
	return f
}

// Predicates возвращает копию предикатов в порядке добавления.
func (f BeerFilter) Predicates() []Predicate {
	return append([]Predicate(nil), f.predicates...)
}

// IsEmpty: фильтр без ограничений.
func (f BeerFilter) IsEmpty() bool {
	return len(f.predicates) == 0
}

// Matches вычисляет фильтр над одной записью (AND по всем предикатам).
func (f BeerFilter) Matches(b Beer) bool {
	for _, p := range f.predicates {
		switch p.Kind {
		case PredicateNameContains:
			if !strings.Contains(strings.ToLower(b.Name), strings.ToLower(p.Value)) {
				return false
			}
		case PredicateStyleEquals:
			if string(b.Style) != p.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}
