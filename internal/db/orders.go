package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"

	"github.com/jackc/pgx/v5"
)

const (
	orderColumns = "o.id, o.house_id, o.user_id, o.begin_date, o.end_date, o.days, o.house_price, o.amount, o.status, o.comment, o.created_at, o.updated_at"
	houseColumns = "h.id, h.user_id, h.area_id, h.title, h.price, h.address, h.room_count, h.acreage, h.unit, h.capacity, h.beds, h.deposit, h.min_days, h.max_days, h.order_count, h.index_image_url, h.created_at"

	// orders that hold their dates
	occupying = "o.status IN ('WAIT_ACCEPT', 'WAIT_PAYMENT', 'WAIT_COMMENT')"
)

func scanOrder(row pgx.Row, o *models.Order, extra ...any) error {
	dest := []any{
		&o.ID, &o.HouseID, &o.UserID, &o.BeginDate, &o.EndDate, &o.Days,
		&o.HousePrice, &o.Amount, &o.Status, &o.Comment, &o.CreatedAt, &o.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func scanHouse(row pgx.Row, h *models.House, extra ...any) error {
	dest := []any{
		&h.ID, &h.UserID, &h.AreaID, &h.Title, &h.Price, &h.Address, &h.RoomCount,
		&h.Acreage, &h.Unit, &h.Capacity, &h.Beds, &h.Deposit, &h.MinDays,
		&h.MaxDays, &h.OrderCount, &h.IndexImageURL, &h.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// bookingTx implements booking.Tx on a pgx transaction. GetHouse and
// GetOrder lock the selected row until commit or rollback. Orders are always
// locked before their house, so GetOrdersForHouse reads without locking and
// relies on the house lock held by the caller.
type bookingTx struct {
	tx pgx.Tx
}

func (t *bookingTx) GetHouse(ctx context.Context, id int) (*models.House, error) {
	h := &models.House{}
	err := scanHouse(t.tx.QueryRow(ctx,
		"SELECT "+houseColumns+" FROM houses h WHERE h.id = $1 FOR UPDATE", id), h)
	if err != nil {
		return nil, lookup("house", id, err)
	}
	return h, nil
}

func (t *bookingTx) GetOrdersForHouse(ctx context.Context, houseID int) ([]models.Order, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.house_id = $1 AND "+occupying,
		houseID)
	if err != nil {
		return nil, persistence("get house orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, persistence("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("get house orders", err)
	}
	return orders, nil
}

func (t *bookingTx) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	o := &models.Order{}
	err := scanOrder(t.tx.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.id = $1 FOR UPDATE", id), o)
	if err != nil {
		return nil, lookup("order", id, err)
	}
	return o, nil
}

func (t *bookingTx) InsertOrder(ctx context.Context, o *models.Order) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, house_id, begin_date, end_date, days, house_price, amount, status, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		o.UserID, o.HouseID, o.BeginDate, o.EndDate, o.Days, o.HousePrice, o.Amount, string(o.Status), o.Comment,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return persistence("create order", err)
	}
	return nil
}

func (t *bookingTx) UpdateOrder(ctx context.Context, o *models.Order) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE orders SET status = $1, comment = $2, updated_at = $3 WHERE id = $4",
		string(o.Status), o.Comment, o.UpdatedAt, o.ID)
	if err != nil {
		return persistence("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", booking.ErrNotFound, o.ID)
	}
	return nil
}

func (t *bookingTx) UpdateHouse(ctx context.Context, h *models.House) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE houses SET area_id = $1, title = $2, price = $3, address = $4, room_count = $5,
		 acreage = $6, unit = $7, capacity = $8, beds = $9, deposit = $10, min_days = $11,
		 max_days = $12, order_count = $13, index_image_url = $14
		 WHERE id = $15`,
		h.AreaID, h.Title, h.Price, h.Address, h.RoomCount, h.Acreage, h.Unit, h.Capacity,
		h.Beds, h.Deposit, h.MinDays, h.MaxDays, h.OrderCount, h.IndexImageURL, h.ID)
	if err != nil {
		return persistence("update house", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: house %d", booking.ErrNotFound, h.ID)
	}
	return nil
}

// ConflictingHouseIDs returns, in one query, the houses holding an occupying
// order that overlaps w. A zero bound of w is unbounded.
func (db *DB) ConflictingHouseIDs(ctx context.Context, w booking.Window) ([]int, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT o.house_id FROM orders o
		 WHERE `+occupying+`
		   AND ($1::date IS NULL OR o.end_date > $1::date)
		   AND ($2::date IS NULL OR o.begin_date < $2::date)
		 ORDER BY o.house_id`,
		dateArg(w.Begin), dateArg(w.End))
	if err != nil {
		return nil, persistence("find conflicting houses", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, persistence("scan house id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("find conflicting houses", err)
	}
	return ids, nil
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var sortClauses = map[booking.SortKey]string{
	booking.SortAcreage:  "h.acreage DESC, h.id DESC",
	booking.SortBooking:  "h.order_count DESC, h.id DESC",
	booking.SortPriceInc: "h.price ASC, h.id DESC",
	booking.SortPriceDes: "h.price DESC, h.id DESC",
}

// SearchHouses returns one page of houses matching f and the total number
// of matches
func (db *DB) SearchHouses(ctx context.Context, f booking.HouseFilter) ([]models.House, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.AreaID != 0 {
		args = append(args, f.AreaID)
		conds = append(conds, fmt.Sprintf("h.area_id = $%d", len(args)))
	}
	if len(f.Exclude) > 0 {
		args = append(args, f.Exclude)
		conds = append(conds, fmt.Sprintf("NOT (h.id = ANY($%d))", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM houses h"+where, args...).Scan(&total); err != nil {
		return nil, 0, persistence("count houses", err)
	}

	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[booking.SortAcreage]
	}
	query := "SELECT " + houseColumns + " FROM houses h" + where + " ORDER BY " + order
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, persistence("search houses", err)
	}
	defer rows.Close()

	houses := []models.House{}
	for rows.Next() {
		var h models.House
		if err := scanHouse(rows, &h); err != nil {
			return nil, 0, persistence("scan house", err)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistence("search houses", err)
	}
	return houses, total, nil
}

// ListOrders retrieves the orders a user placed, or received on their
// houses when role is landlord, newest first
func (db *DB) ListOrders(ctx context.Context, userID int, role booking.Role) ([]models.OrderView, error) {
	owner := "o.user_id"
	if role == booking.RoleLandlord {
		owner = "h.user_id"
	}
	rows, err := db.Pool.Query(ctx,
		"SELECT "+orderColumns+", h.title, h.index_image_url FROM orders o JOIN houses h ON h.id = o.house_id"+
			" WHERE "+owner+" = $1 ORDER BY o.id DESC",
		userID)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	defer rows.Close()

	views := []models.OrderView{}
	for rows.Next() {
		var v models.OrderView
		if err := scanOrder(rows, &v.Order, &v.Title, &v.ImageURL); err != nil {
			return nil, persistence("scan order", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list orders", err)
	}
	return views, nil
}
