package booking

import (
	"context"

	"github.com/xtrntr/ihome/internal/models"
)

// Tx is the persistence surface available inside one transaction. GetHouse
// and GetOrder lock the returned row until the transaction ends; an order is
// always locked before its house. GetOrdersForHouse is only consistent while
// the caller holds the house lock.
type Tx interface {
	GetHouse(ctx context.Context, id int) (*models.House, error)
	GetOrdersForHouse(ctx context.Context, houseID int) ([]models.Order, error)
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateHouse(ctx context.Context, house *models.House) error
}

// Store groups Tx operations into transactions and serves the read-only
// queries behind search and order listing.
type Store interface {
	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ConflictingHouseIDs(ctx context.Context, w Window) ([]int, error)
	SearchHouses(ctx context.Context, f HouseFilter) ([]models.House, int, error)
	ListOrders(ctx context.Context, userID int, role Role) ([]models.OrderView, error)
}

// Invalidator drops cached representations of a house
type Invalidator interface {
	Invalidate(ctx context.Context, houseID int) error
}

// Notifier is told about every order change together with the user who
// should hear about it.
type Notifier interface {
	OrderChanged(order models.Order, recipientID int)
}

// SortKey orders search results
type SortKey string

const (
	SortAcreage  SortKey = "new"
	SortBooking  SortKey = "booking"
	SortPriceInc SortKey = "price-inc"
	SortPriceDes SortKey = "price-des"
)

// ParseSortKey maps the query value to a key; unknown values sort by acreage
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortBooking, SortPriceInc, SortPriceDes:
		return SortKey(s)
	}
	return SortAcreage
}

// HouseFilter is the store-level form of a search
type HouseFilter struct {
	AreaID  int // 0 matches every area
	Exclude []int
	Sort    SortKey
	Limit   int
	Offset  int
}

// Role selects which side of an order a user is listing
type Role string

const (
	RoleGuest    Role = "custom"
	RoleLandlord Role = "landlord"
)
