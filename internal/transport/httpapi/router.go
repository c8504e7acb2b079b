// Package httpapi: REST API каталога поверх gorilla/mux.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
	"github.com/vladislavdragonenkov/catalog/internal/service/customer"
	"github.com/vladislavdragonenkov/catalog/internal/service/idempotency"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
)

const (
	BeerPath     = "/api/v1/beer"
	CategoryPath = "/api/v1/category"
	CustomerPath = "/api/v1/customer"
	OrderPath    = "/api/v1/order"
)

// Deps: сервисы и инфраструктура, которые обслуживает роутер.
// Guard и Metrics необязательны.
type Deps struct {
	Catalog   *catalog.Service
	Customers *customer.Service
	Orders    *order.Service
	Guard     *idempotency.Guard
	Metrics   *metrics.HTTPMetrics
	Logger    *log.Entry
}

type handler struct {
	catalog   *catalog.Service
	customers *customer.Service
	orders    *order.Service
	logger    *log.Entry
}

// NewRouter собирает маршруты API.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	h := &handler{
		catalog:   deps.Catalog,
		customers: deps.Customers,
		orders:    deps.Orders,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.NotFoundHandler = notFoundHandler(logger)
	r.MethodNotAllowedHandler = methodNotAllowedHandler(logger)

	r.Use(loggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	r.Use(bodyLimitMiddleware)
	r.Use(idempotencyMiddleware(deps.Guard, logger))

	r.HandleFunc(BeerPath, h.listBeers).Methods(http.MethodGet)
	r.HandleFunc(BeerPath, h.createBeer).Methods(http.MethodPost)
	r.HandleFunc(BeerPath+"/{beerId}", h.getBeer).Methods(http.MethodGet)
	r.HandleFunc(BeerPath+"/{beerId}", h.updateBeer).Methods(http.MethodPut)
	r.HandleFunc(BeerPath+"/{beerId}", h.patchBeer).Methods(http.MethodPatch)
	r.HandleFunc(BeerPath+"/{beerId}", h.deleteBeer).Methods(http.MethodDelete)
	r.HandleFunc(BeerPath+"/{beerId}/category/{categoryId}", h.associateBeer).Methods(http.MethodPut)
	r.HandleFunc(BeerPath+"/{beerId}/category/{categoryId}", h.disassociateBeer).Methods(http.MethodDelete)

	r.HandleFunc(CategoryPath, h.listCategories).Methods(http.MethodGet)
	r.HandleFunc(CategoryPath, h.createCategory).Methods(http.MethodPost)
	r.HandleFunc(CategoryPath+"/{categoryId}", h.getCategory).Methods(http.MethodGet)

	r.HandleFunc(CustomerPath, h.listCustomers).Methods(http.MethodGet)
	r.HandleFunc(CustomerPath, h.createCustomer).Methods(http.MethodPost)
	r.HandleFunc(CustomerPath+"/{customerId}", h.getCustomer).Methods(http.MethodGet)
	r.HandleFunc(CustomerPath+"/{customerId}", h.updateCustomer).Methods(http.MethodPut)
	r.HandleFunc(CustomerPath+"/{customerId}", h.patchCustomer).Methods(http.MethodPatch)
	r.HandleFunc(CustomerPath+"/{customerId}", h.deleteCustomer).Methods(http.MethodDelete)
	r.HandleFunc(CustomerPath+"/{customerId}/orders", h.listCustomerOrders).Methods(http.MethodGet)

	r.HandleFunc(OrderPath, h.createOrder).Methods(http.MethodPost)
	r.HandleFunc(OrderPath+"/{orderId}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc(OrderPath+"/{orderId}", h.deleteOrder).Methods(http.MethodDelete)

	return r
}

func created(w http.ResponseWriter, logger *log.Entry, location string, body any) {
	w.Header().Set("Location", location)
	writeJSON(w, logger, http.StatusCreated, body)
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
