package domain

const (
	// DefaultPageSize применяется, если размер страницы не задан или не положителен.
	DefaultPageSize = 25
	// DefaultMaxPageSize: верхняя граница размера страницы по умолчанию.
	DefaultMaxPageSize = 1000
)

// PageRequest: разрешённые номер (с 1) и размер страницы.
type PageRequest struct {
	Number int
	Size   int
}

// NewPageRequest нормализует запрос: номер <= 0 -> 1, размер <= 0 -> defaultSize,
// размер больше maxSize обрезается до maxSize.
func NewPageRequest(number, size, defaultSize, maxSize int) PageRequest {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	if number <= 0 {
		number = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return PageRequest{Number: number, Size: size}
}

// Offset: число пропускаемых записей.
func (p PageRequest) Offset() int {
	return (p.Number - 1) * p.Size
}

// Page: окно результата с метаданными пагинации.
type Page[T any] struct {
	Content       []T
	TotalElements int64
	TotalPages    int
	PageNumber    int
	PageSize      int
}

// NewPage собирает страницу, TotalPages считается делением с округлением вверх.
func NewPage[T any](content []T, total int64, req PageRequest) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		PageNumber:    req.Number,
		PageSize:      req.Size,
	}
}

// MapPage преобразует содержимое страницы, сохраняя метаданные.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[R]{
		Content:       out,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
	}
}
