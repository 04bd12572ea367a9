// Package bookingtest provides an in-memory booking.Store for tests.
package bookingtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
)

// ErrInjected is returned by the operation named in MemStore.FailOn
var ErrInjected = errors.New("injected failure")

// MemStore keeps houses and orders in maps. Transactions are serialised by a
// single mutex and roll back by restoring a snapshot.
type MemStore struct {
	mu      sync.Mutex
	houses  map[int]models.House
	orders  map[int]models.Order
	nextID  int
	failOn  string
	Queries int // number of ConflictingHouseIDs calls
}

// NewMemStore returns an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		houses: make(map[int]models.House),
		orders: make(map[int]models.Order),
	}
}

// FailOn makes the named Tx method ("InsertOrder", "UpdateHouse", ...) fail
// until it is reset with an empty name.
func (m *MemStore) FailOn(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = op
}

// AddHouse stores h under a fresh id and returns it
func (m *MemStore) AddHouse(h models.House) models.House {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h.ID = m.nextID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	m.houses[h.ID] = h
	return h
}

// AddOrder stores o under a fresh id and returns it
func (m *MemStore) AddOrder(o models.Order) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	m.orders[o.ID] = o
	return o
}

// House returns the stored house with the given id
func (m *MemStore) House(id int) (models.House, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.houses[id]
	return h, ok
}

// Order returns the stored order with the given id
func (m *MemStore) Order(id int) (models.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

// OrderCount is the number of stored orders
func (m *MemStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemStore) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	houses := make(map[int]models.House, len(m.houses))
	for k, v := range m.houses {
		houses[k] = v
	}
	orders := make(map[int]models.Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = v
	}
	nextID := m.nextID

	if err := fn(&memTx{m: m}); err != nil {
		m.houses, m.orders, m.nextID = houses, orders, nextID
		return err
	}
	return nil
}

func (m *MemStore) ConflictingHouseIDs(ctx context.Context, w booking.Window) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries++

	orders := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, o)
	}
	return booking.ConflictingHouseIDs(orders, w), nil
}

func (m *MemStore) SearchHouses(ctx context.Context, f booking.HouseFilter) ([]models.House, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	excluded := make(map[int]bool, len(f.Exclude))
	for _, id := range f.Exclude {
		excluded[id] = true
	}
	var matched []models.House
	for _, h := range m.houses {
		if excluded[h.ID] || (f.AreaID != 0 && h.AreaID != f.AreaID) {
			continue
		}
		matched = append(matched, h)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var ka, kb int
		switch f.Sort {
		case booking.SortBooking:
			ka, kb = b.OrderCount, a.OrderCount
		case booking.SortPriceInc:
			ka, kb = a.Price, b.Price
		case booking.SortPriceDes:
			ka, kb = b.Price, a.Price
		default:
			ka, kb = b.Acreage, a.Acreage
		}
		if ka != kb {
			return ka < kb
		}
		return a.ID > b.ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []models.House{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (m *MemStore) ListOrders(ctx context.Context, userID int, role booking.Role) ([]models.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var views []models.OrderView
	for _, o := range m.orders {
		h := m.houses[o.HouseID]
		if (role == booking.RoleLandlord && h.UserID != userID) || (role != booking.RoleLandlord && o.UserID != userID) {
			continue
		}
		views = append(views, models.OrderView{Order: o, Title: h.Title, ImageURL: h.IndexImageURL})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return views, nil
}

type memTx struct {
	m *MemStore
}

func (t *memTx) fail(op string) error {
	if t.m.failOn == op {
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

func (t *memTx) GetHouse(ctx context.Context, id int) (*models.House, error) {
	if err := t.fail("GetHouse"); err != nil {
		return nil, err
	}
	h, ok := t.m.houses[id]
	if !ok {
		return nil, fmt.Errorf("%w: house %d", booking.ErrNotFound, id)
	}
	return &h, nil
}

func (t *memTx) GetOrdersForHouse(ctx context.Context, houseID int) ([]models.Order, error) {
	if err := t.fail("GetOrdersForHouse"); err != nil {
		return nil, err
	}
	var orders []models.Order
	for _, o := range t.m.orders {
		if o.HouseID == houseID && o.Status != models.StatusRejected {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (t *memTx) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	if err := t.fail("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := t.m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", booking.ErrNotFound, id)
	}
	return &o, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *models.Order) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	t.m.nextID++
	o.ID = t.m.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	t.m.orders[o.ID] = *o
	return nil
}

func (t *memTx) UpdateOrder(ctx context.Context, o *models.Order) error {
	if err := t.fail("UpdateOrder"); err != nil {
		return err
	}
	if _, ok := t.m.orders[o.ID]; !ok {
		return fmt.Errorf("%w: order %d", booking.ErrNotFound, o.ID)
	}
	t.m.orders[o.ID] = *o
	return nil
}

func (t *memTx) UpdateHouse(ctx context.Context, h *models.House) error {
	if err := t.fail("UpdateHouse"); err != nil {
		return err
	}
	if _, ok := t.m.houses[h.ID]; !ok {
		return fmt.Errorf("%w: house %d", booking.ErrNotFound, h.ID)
	}
	t.m.houses[h.ID] = *h
	return nil
}
