package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/listing"
)

// GetAreas lists the areas houses can be listed in
func (h *Handler) GetAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Listing.Areas(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

// CreateHouse lists a new house owned by the caller
func (h *Handler) CreateHouse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req listing.NewHouse
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	house, err := h.Listing.CreateHouse(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"house_id": house.ID})
}

// AddHouseImage stores the uploaded "house_image" for one of the caller's houses
func (h *Handler) AddHouseImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	houseID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.readUpload(w, r, "house_image")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	url, err := h.Listing.AddHouseImage(r.Context(), userID, houseID, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetHouse returns the detail page of a house
func (h *Handler) GetHouse(w http.ResponseWriter, r *http.Request) {
	houseID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	detail, err := h.Listing.HouseDetail(r.Context(), houseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetIndex returns the home page houses
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	houses, err := h.Listing.Index(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

// GetUserHouses lists the caller's houses
func (h *Handler) GetUserHouses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	houses, err := h.Listing.UserHouses(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

// SearchHouses handles the house list page: aid (area), sd and ed (dates),
// sk (sort key) and p (page), all optional
func (h *Handler) SearchHouses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	areaID, err := optionalInt(q.Get("aid"), "aid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := optionalInt(q.Get("p"), "p")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.Booking.SearchHouses(r.Context(), booking.SearchQuery{
		AreaID: areaID,
		Begin:  q.Get("sd"),
		End:    q.Get("ed"),
		Sort:   q.Get("sk"),
		Page:   page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func optionalInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", booking.ErrValidation, name)
	}
	return n, nil
}
