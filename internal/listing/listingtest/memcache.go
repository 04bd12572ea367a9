package listingtest

import (
	"context"
	"sync"

	"github.com/xtrntr/ihome/internal/models"
)

// MemCache is a listing.Cache backed by maps. Setting Err makes every call fail.
type MemCache struct {
	mu          sync.Mutex
	areas       []models.Area
	details     map[int]models.HouseDetail
	index       []models.House
	hasIndex    bool
	Invalidated []int
	Err         error
}

// NewMemCache returns an empty cache
func NewMemCache() *MemCache {
	return &MemCache{details: make(map[int]models.HouseDetail)}
}

func (c *MemCache) GetAreas(ctx context.Context) ([]models.Area, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	return c.areas, c.areas != nil, nil
}

func (c *MemCache) SetAreas(ctx context.Context, areas []models.Area) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.areas = areas
	return nil
}

func (c *MemCache) GetHouseDetail(ctx context.Context, houseID int) (*models.HouseDetail, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	d, ok := c.details[houseID]
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}

func (c *MemCache) SetHouseDetail(ctx context.Context, d *models.HouseDetail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.details[d.ID] = *d
	return nil
}

func (c *MemCache) GetIndex(ctx context.Context) ([]models.House, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	return c.index, c.hasIndex, nil
}

func (c *MemCache) SetIndex(ctx context.Context, houses []models.House) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.index, c.hasIndex = houses, true
	return nil
}

func (c *MemCache) Invalidate(ctx context.Context, houseID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidated = append(c.Invalidated, houseID)
	if c.Err != nil {
		return c.Err
	}
	delete(c.details, houseID)
	c.index, c.hasIndex = nil, false
	return nil
}
