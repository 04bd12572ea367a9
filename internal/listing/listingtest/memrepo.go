// Package listingtest provides in-memory listing.Repository and
// listing.Cache implementations for tests
package listingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/booking/bookingtest"
	"github.com/xtrntr/ihome/internal/models"
)

// MemRepo keeps areas, facilities and images in memory and stores houses in
// a bookingtest.MemStore so that orders and listings see the same houses.
type MemRepo struct {
	mu         sync.Mutex
	Store      *bookingtest.MemStore
	areas      []models.Area
	facilities []models.Facility
	houseFacs  map[int][]int
	images     map[int][]string
	Calls      map[string]int
}

// NewMemRepo seeds the given areas and facilities with ids starting at 1
func NewMemRepo(store *bookingtest.MemStore, areas, facilities []string) *MemRepo {
	r := &MemRepo{
		Store:     store,
		houseFacs: make(map[int][]int),
		images:    make(map[int][]string),
		Calls:     make(map[string]int),
	}
	for i, name := range areas {
		r.areas = append(r.areas, models.Area{ID: i + 1, Name: name})
	}
	for i, name := range facilities {
		r.facilities = append(r.facilities, models.Facility{ID: i + 1, Name: name})
	}
	return r
}

func (r *MemRepo) call(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls[op]++
}

func (r *MemRepo) ListAreas(ctx context.Context) ([]models.Area, error) {
	r.call("ListAreas")
	return append([]models.Area{}, r.areas...), nil
}

func (r *MemRepo) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	r.call("ListFacilities")
	return append([]models.Facility{}, r.facilities...), nil
}

func (r *MemRepo) CreateHouse(ctx context.Context, h *models.House, facilities []int) (*models.House, error) {
	r.call("CreateHouse")
	if h.AreaID > len(r.areas) {
		return nil, fmt.Errorf("%w: unknown area %d", booking.ErrValidation, h.AreaID)
	}
	house := r.Store.AddHouse(*h)
	r.mu.Lock()
	r.houseFacs[house.ID] = append([]int{}, facilities...)
	r.mu.Unlock()
	return &house, nil
}

func (r *MemRepo) GetHouse(ctx context.Context, id int) (*models.House, error) {
	r.call("GetHouse")
	h, ok := r.Store.House(id)
	if !ok {
		return nil, fmt.Errorf("%w: house %d", booking.ErrNotFound, id)
	}
	return &h, nil
}

func (r *MemRepo) AddHouseImage(ctx context.Context, houseID int, url string) (*models.HouseImage, error) {
	r.call("AddHouseImage")
	err := r.Store.InTx(ctx, func(tx booking.Tx) error {
		h, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}
		if h.IndexImageURL == "" {
			h.IndexImageURL = url
			return tx.UpdateHouse(ctx, h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[houseID] = append(r.images[houseID], url)
	return &models.HouseImage{ID: len(r.images[houseID]), HouseID: houseID, URL: url}, nil
}

func (r *MemRepo) GetHouseDetail(ctx context.Context, id, commentLimit int) (*models.HouseDetail, error) {
	r.call("GetHouseDetail")
	h, ok := r.Store.House(id)
	if !ok {
		return nil, fmt.Errorf("%w: house %d", booking.ErrNotFound, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	d := &models.HouseDetail{
		House:      h,
		ImageURLs:  append([]string{}, r.images[id]...),
		Facilities: append([]int{}, r.houseFacs[id]...),
		Comments:   []models.HouseComment{},
	}
	for _, a := range r.areas {
		if a.ID == h.AreaID {
			d.AreaName = a.Name
		}
	}
	return d, nil
}

func (r *MemRepo) ListUserHouses(ctx context.Context, userID int) ([]models.House, error) {
	r.call("ListUserHouses")
	houses := []models.House{}
	for _, h := range r.allHouses() {
		if h.UserID == userID {
			houses = append(houses, h)
		}
	}
	sort.Slice(houses, func(i, j int) bool { return houses[i].ID > houses[j].ID })
	return houses, nil
}

func (r *MemRepo) ListIndexHouses(ctx context.Context, limit int) ([]models.House, error) {
	r.call("ListIndexHouses")
	houses := []models.House{}
	for _, h := range r.allHouses() {
		if h.IndexImageURL != "" {
			houses = append(houses, h)
		}
	}
	sort.Slice(houses, func(i, j int) bool {
		if houses[i].OrderCount != houses[j].OrderCount {
			return houses[i].OrderCount > houses[j].OrderCount
		}
		return houses[i].ID > houses[j].ID
	})
	if len(houses) > limit {
		houses = houses[:limit]
	}
	return houses, nil
}

func (r *MemRepo) allHouses() []models.House {
	houses, _, _ := r.Store.SearchHouses(context.Background(), booking.HouseFilter{})
	return houses
}
