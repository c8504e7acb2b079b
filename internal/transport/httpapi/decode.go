package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 1 << 20

// readBody читает тело целиком. Тело длиннее maxBodyBytes отклоняется
// ошибкой поля body, а не обрезается.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, domain.NewValidationError("body", fmt.Sprintf("too large: limit is %d bytes", tooLarge.Limit))
	}
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

// decodeBody читает JSON-тело в dst. Неизвестные поля игнорируются.
// Синтаксические ошибки и несовпадение типов возвращаются как ошибки полей.
func decodeBody(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.NewValidationError("body", "must not be empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, "has invalid type "+typeErr.Value)
	}
	return domain.NewValidationError("body", "malformed JSON: "+err.Error())
}

// patchDocument: разобранный на поля документ PATCH. Отсутствующий ключ
// означает "не менять", литерал null означает "сбросить".
type patchDocument map[string]json.RawMessage

func decodePatch(r *http.Request) (patchDocument, error) {
	doc := patchDocument{}
	if err := decodeBody(r, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// patchField читает одно поле документа в domain.PatchField.
func patchField[T any](doc patchDocument, key string, errs *domain.ValidationError) domain.PatchField[T] {
	raw, ok := doc[key]
	if !ok {
		return domain.PatchField[T]{}
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return domain.Null[T]()
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		errs.Add(key, "has invalid type")
		return domain.PatchField[T]{}
	}
	return domain.Set(value)
}

// version достаёт ожидаемую версию из документа, если клиент её передал.
func (doc patchDocument) version(errs *domain.ValidationError) *int64 {
	field := patchField[int64](doc, "version", errs)
	if v, ok := field.Value(); ok {
		return &v
	}
	return nil
}

func (doc patchDocument) beerPatch() (domain.BeerPatch, *int64, error) {
	errs := &domain.ValidationError{}
	patch := domain.BeerPatch{
		Name:           patchField[string](doc, "beerName", errs),
		UPC:            patchField[string](doc, "upc", errs),
		QuantityOnHand: patchField[int32](doc, "quantityOnHand", errs),
		Price:          patchField[decimal.Decimal](doc, "price", errs),
		Categories:     patchField[[]string](doc, "categories", errs),
	}

	style := patchField[string](doc, "beerStyle", errs)
	switch raw, ok := style.Value(); {
	case ok:
		patch.Style = domain.Set(normalizeStyle(raw))
	case style.IsNull():
		patch.Style = domain.Null[domain.BeerStyle]()
	}

	expected := doc.version(errs)
	if err := errs.OrNil(); err != nil {
		return domain.BeerPatch{}, nil, err
	}
	return patch, expected, nil
}

func (doc patchDocument) customerPatch() (domain.CustomerPatch, *int64, error) {
	errs := &domain.ValidationError{}
	patch := domain.CustomerPatch{
		Name:  patchField[string](doc, "name", errs),
		Email: patchField[string](doc, "email", errs),
	}
	expected := doc.version(errs)
	if err := errs.OrNil(); err != nil {
		return domain.CustomerPatch{}, nil, err
	}
	return patch, expected, nil
}

// listQuery разбирает параметры списка. Пустые параметры считаются отсутствующими.
type listQuery struct {
	name          string
	style         domain.BeerStyle
	showInventory bool
	pageNumber    int
	pageSize      int
}

func parseListQuery(r *http.Request) (listQuery, error) {
	values := r.URL.Query()
	errs := &domain.ValidationError{}
	q := listQuery{name: values.Get("beerName")}

	if raw := strings.TrimSpace(values.Get("beerStyle")); raw != "" {
		style, ok := domain.ParseBeerStyle(raw)
		if !ok {
			errs.Add("beerStyle", fmt.Sprintf("must be one of %v", domain.BeerStyles()))
		}
		q.style = style
	}
	if raw := strings.TrimSpace(values.Get("showInventory")); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			errs.Add("showInventory", "must be a boolean")
		}
		q.showInventory = show
	}
	q.pageNumber = intParam(values.Get("pageNumber"), "pageNumber", errs)
	q.pageSize = intParam(values.Get("pageSize"), "pageSize", errs)

	return q, errs.OrNil()
}

func intParam(raw, field string, errs *domain.ValidationError) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(field, "must be an integer")
		return 0
	}
	return v
}
