package domain

import "context"

// BeerRepository описывает требования к хранилищу пива.
type BeerRepository interface {
	// Create сохраняет новую запись с версией 0 и связывает её с beer.Categories.
	// Неизвестная категория -> ErrCategoryNotFound, занятый ID -> ErrAlreadyExists.
	Create(ctx context.Context, beer Beer) (Beer, error)
	// Get возвращает запись или ErrBeerNotFound.
	Get(ctx context.Context, id string) (Beer, error)
	// List сканирует записи, удовлетворяющие фильтру, и возвращает окно страницы
	// вместе с общим количеством совпадений. Порядок: имя, затем ID.
	List(ctx context.Context, filter BeerFilter, page PageRequest) ([]Beer, int64, error)
	// Count возвращает общее число записей.
	Count(ctx context.Context) (int64, error)
	// Update применяет изменения атомарно с проверкой версии: beer.Version: ожидаемая
	// версия, при совпадении хранилище увеличивает её на 1. Если categories != nil,
	// связи заменяются этим набором в той же транзакции.
	// Нет записи -> ErrBeerNotFound, версия устарела -> ErrVersionConflict.
	Update(ctx context.Context, beer Beer, categories []string) (Beer, error)
	// Delete удаляет запись и её связи с категориями. ErrBeerInUse, если на пиво
	// ссылаются позиции заказов.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository описывает хранилище категорий и связи beer <-> category.
type CategoryRepository interface {
	Create(ctx context.Context, category Category) (Category, error)
	Get(ctx context.Context, id string) (Category, error)
	List(ctx context.Context) ([]Category, error)
	// Associate добавляет связь с обеих сторон в одной транзакции.
	// Возвращает false, если связь уже была.
	Associate(ctx context.Context, beerID, categoryID string) (bool, error)
	// Disassociate снимает связь с обеих сторон в одной транзакции.
	// Возвращает false, если связи не было.
	Disassociate(ctx context.Context, beerID, categoryID string) (bool, error)
}

// CustomerRepository описывает хранилище покупателей.
type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
	// Update работает как BeerRepository.Update: customer.Version: ожидаемая версия.
	Update(ctx context.Context, customer Customer) (Customer, error)
	// Delete возвращает ErrCustomerHasOrders, пока у покупателя есть заказы.
	Delete(ctx context.Context, id string) error
}

// OrderRepository описывает хранилище заказов с каскадом на позиции и отгрузку.
type OrderRepository interface {
	// Create сохраняет заказ, позиции и отгрузку в одной транзакции.
	// Неизвестный покупатель -> ErrCustomerNotFound, неизвестное пиво -> ErrBeerNotFound.
	Create(ctx context.Context, order BeerOrder) (BeerOrder, error)
	Get(ctx context.Context, id string) (BeerOrder, error)
	// ListByCustomer возвращает заказы покупателя, новые первыми.
	ListByCustomer(ctx context.Context, customerID string) ([]BeerOrder, error)
	// Delete удаляет заказ вместе с позициями и отгрузкой; пиво и покупатель не трогаются.
	Delete(ctx context.Context, id string) error
}
