package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound: базовая ошибка отсутствующей записи, все *NotFound оборачивают её.
	ErrNotFound = errors.New("not found")
	// ErrBeerNotFound возвращается, если пиво не найдено в хранилище.
	ErrBeerNotFound = fmt.Errorf("beer %w", ErrNotFound)
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	// ErrCustomerNotFound возвращается, если клиент не найден.
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = fmt.Errorf("beer order %w", ErrNotFound)
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrValidationFailed: общая ошибка валидации, детали в *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvariantViolation: нарушена симметрия связи beer <-> category.
	ErrInvariantViolation = errors.New("association invariant violated")
	// ErrAlreadyExists возвращается при повторном создании записи с тем же ID.
	ErrAlreadyExists = errors.New("already exists")
	// ErrBeerInUse: пиво нельзя удалить, пока на него ссылаются позиции заказов.
	ErrBeerInUse = errors.New("beer is referenced by orders")
	// ErrCustomerHasOrders: покупателя нельзя удалить, пока у него есть заказы.
	ErrCustomerHasOrders = errors.New("customer has orders")

	// ErrIdempotencyKeyRequired: пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired: не передан hash запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists: ключ уже занят тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch: ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound: ключ не найден или уже удалён по TTL.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// FieldError описывает ошибку валидации одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError агрегирует ошибки полей в порядке их обнаружения.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError создаёт ошибку с одним полем.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

// Is позволяет матчить *ValidationError через errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add добавляет ошибку поля.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil возвращает nil, если ошибок нет.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// FieldErrors достаёт список ошибок полей, если err содержит *ValidationError.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
