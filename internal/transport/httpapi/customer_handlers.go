package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetCustomer(r.Context(), mux.Vars(r)["customerId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toCustomerResponse(c))
}

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	c, err := h.customers.CreateCustomer(r.Context(), req.toInput())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	created(w, h.logger, CustomerPath+"/"+c.ID, toCustomerResponse(c))
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.customers.UpdateCustomer(r.Context(), mux.Vars(r)["customerId"], req.toInput(), req.Version); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) patchCustomer(w http.ResponseWriter, r *http.Request) {
	doc, err := decodePatch(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	patch, expected, err := doc.customerPatch()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.customers.PatchCustomer(r.Context(), mux.Vars(r)["customerId"], patch, expected); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.DeleteCustomer(r.Context(), mux.Vars(r)["customerId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListCustomerOrders(r.Context(), mux.Vars(r)["customerId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
