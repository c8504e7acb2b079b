package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	o, err := h.orders.CreateOrder(r.Context(), req.toInput())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	created(w, h.logger, OrderPath+"/"+o.ID, toOrderResponse(o))
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toOrderResponse(o))
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), mux.Vars(r)["orderId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}
