package domain

import (
	"strings"
	"time"
)

// MaxCategoryDescriptionLength: ограничение колонки description.
const MaxCategoryDescriptionLength = 50

// Category группирует пиво. Beers: обратная сторона связи, только для обхода.
type Category struct {
	ID          string
	Version     int64
	Description string
	Beers       IDSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone возвращает копию с независимым множеством Beers.
func (c Category) Clone() Category {
	dst := c
	dst.Beers = c.Beers.Clone()
	return dst
}

// ValidateCategoryDescription проверяет описание категории.
func ValidateCategoryDescription(description string) error {
	errs := &ValidationError{}
	switch {
	case strings.TrimSpace(description) == "":
		errs.Add("description", "must not be blank")
	case runeLen(description) > MaxCategoryDescriptionLength:
		errs.Add("description", sizeMessage(MaxCategoryDescriptionLength))
	}
	return errs.OrNil()
}
