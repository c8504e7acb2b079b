package domain

import (
	"strings"
	"time"
)

const (
	// MaxCustomerNameLength: ограничение колонки customer_name.
	MaxCustomerNameLength = 255
	// MaxEmailLength: ограничение колонки email.
	MaxEmailLength = 255
)

// Customer: покупатель, владеет своими заказами.
type Customer struct {
	ID        string
	Version   int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerInput: изменяемые клиентом поля покупателя.
type CustomerInput struct {
	Name  string
	Email string
}

// Validate проверяет поля покупателя.
func (in CustomerInput) Validate() error {
	errs := &ValidationError{}
	switch {
	case strings.TrimSpace(in.Name) == "":
		errs.Add("name", "must not be blank")
	case runeLen(in.Name) > MaxCustomerNameLength:
		errs.Add("name", sizeMessage(MaxCustomerNameLength))
	}
	if in.Email != "" {
		switch {
		case runeLen(in.Email) > MaxEmailLength:
			errs.Add("email", sizeMessage(MaxEmailLength))
		case !strings.Contains(in.Email, "@"):
			errs.Add("email", "must be a well-formed email address")
		}
	}
	return errs.OrNil()
}

// CustomerPatch: разреженное обновление покупателя.
type CustomerPatch struct {
	Name  PatchField[string]
	Email PatchField[string]
}

func (p CustomerPatch) IsEmpty() bool {
	return !p.Name.Present() && !p.Email.Present()
}

// Merge накладывает присутствующие поля на текущего покупателя.
func (p CustomerPatch) Merge(current Customer) CustomerInput {
	in := CustomerInput{Name: current.Name, Email: current.Email}
	if p.Name.Present() {
		in.Name, _ = p.Name.Value()
	}
	if p.Email.Present() {
		in.Email, _ = p.Email.Value()
	}
	return in
}
