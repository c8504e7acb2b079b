package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
)

func (h *handler) listBeers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := h.catalog.ListBeers(r.Context(), catalog.ListQuery{
		Name:          q.name,
		Style:         q.style,
		ShowInventory: q.showInventory,
		PageNumber:    q.pageNumber,
		PageSize:      q.pageSize,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPageResponse(page, toBeerResponse))
}

func (h *handler) getBeer(w http.ResponseWriter, r *http.Request) {
	beer, err := h.catalog.GetBeer(r.Context(), mux.Vars(r)["beerId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toBeerResponse(beer))
}

func (h *handler) createBeer(w http.ResponseWriter, r *http.Request) {
	var req beerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	beer, err := h.catalog.CreateBeer(r.Context(), req.toInput())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	created(w, h.logger, BeerPath+"/"+beer.ID, toBeerResponse(beer))
}

func (h *handler) updateBeer(w http.ResponseWriter, r *http.Request) {
	var req beerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.catalog.UpdateBeer(r.Context(), mux.Vars(r)["beerId"], req.toInput(), req.Version); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) patchBeer(w http.ResponseWriter, r *http.Request) {
	doc, err := decodePatch(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	patch, expected, err := doc.beerPatch()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.catalog.PatchBeer(r.Context(), mux.Vars(r)["beerId"], patch, expected); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) deleteBeer(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteBeer(r.Context(), mux.Vars(r)["beerId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) associateBeer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.catalog.AssociateBeer(r.Context(), vars["beerId"], vars["categoryId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) disassociateBeer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.catalog.DisassociateBeer(r.Context(), vars["beerId"], vars["categoryId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	noContent(w)
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *handler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), mux.Vars(r)["categoryId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toCategoryResponse(category))
}

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	created(w, h.logger, CategoryPath+"/"+category.ID, toCategoryResponse(category))
}
