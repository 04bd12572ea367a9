package db

import (
	"context"
	"fmt"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
)

// ListAreas returns every area ordered by id
func (db *DB) ListAreas(ctx context.Context) ([]models.Area, error) {
	rows, err := db.Pool.Query(ctx, "SELECT id, name FROM areas ORDER BY id")
	if err != nil {
		return nil, persistence("list areas", err)
	}
	defer rows.Close()

	areas := []models.Area{}
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, persistence("scan area", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list areas", err)
	}
	return areas, nil
}

// CreateArea inserts an area, returning the existing one when the name is taken
func (db *DB) CreateArea(ctx context.Context, name string) (*models.Area, error) {
	a := &models.Area{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO areas (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`, name).Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, persistence("create area", err)
	}
	return a, nil
}

// ListFacilities returns every facility ordered by id
func (db *DB) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	rows, err := db.Pool.Query(ctx, "SELECT id, name FROM facilities ORDER BY id")
	if err != nil {
		return nil, persistence("list facilities", err)
	}
	defer rows.Close()

	facilities := []models.Facility{}
	for rows.Next() {
		var f models.Facility
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, persistence("scan facility", err)
		}
		facilities = append(facilities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list facilities", err)
	}
	return facilities, nil
}

// CreateFacility inserts a facility, returning the existing one when the name is taken
func (db *DB) CreateFacility(ctx context.Context, name string) (*models.Facility, error) {
	f := &models.Facility{}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO facilities (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`, name).Scan(&f.ID, &f.Name)
	if err != nil {
		return nil, persistence("create facility", err)
	}
	return f, nil
}

// CreateHouse inserts a house together with its facilities. Unknown area or
// facility ids are reported as validation errors.
func (db *DB) CreateHouse(ctx context.Context, h *models.House, facilities []int) (*models.House, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	house := &models.House{}
	err = scanHouse(tx.QueryRow(ctx,
		`INSERT INTO houses AS h (user_id, area_id, title, price, address, room_count, acreage, unit,
		 capacity, beds, deposit, min_days, max_days)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+houseColumns,
		h.UserID, h.AreaID, h.Title, h.Price, h.Address, h.RoomCount, h.Acreage, h.Unit,
		h.Capacity, h.Beds, h.Deposit, h.MinDays, h.MaxDays), house)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return nil, fmt.Errorf("%w: unknown area %d", booking.ErrValidation, h.AreaID)
		}
		return nil, persistence("create house", err)
	}

	for _, fid := range facilities {
		_, err := tx.Exec(ctx,
			"INSERT INTO house_facilities (house_id, facility_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			house.ID, fid)
		if err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return nil, fmt.Errorf("%w: unknown facility %d", booking.ErrValidation, fid)
			}
			return nil, persistence("add house facility", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit transaction", err)
	}
	return house, nil
}

// GetHouse retrieves a house without locking it
func (db *DB) GetHouse(ctx context.Context, id int) (*models.House, error) {
	h := &models.House{}
	err := scanHouse(db.Pool.QueryRow(ctx, "SELECT "+houseColumns+" FROM houses h WHERE h.id = $1", id), h)
	if err != nil {
		return nil, lookup("house", id, err)
	}
	return h, nil
}

// AddHouseImage stores an image url for a house. The first image of a house
// becomes its index image.
func (db *DB) AddHouseImage(ctx context.Context, houseID int, url string) (*models.HouseImage, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	img := &models.HouseImage{HouseID: houseID, URL: url}
	err = tx.QueryRow(ctx,
		"INSERT INTO house_images (house_id, url) VALUES ($1, $2) RETURNING id", houseID, url).Scan(&img.ID)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return nil, fmt.Errorf("%w: house %d", booking.ErrNotFound, houseID)
		}
		return nil, persistence("add house image", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE houses SET index_image_url = $1 WHERE id = $2 AND index_image_url = ''", url, houseID)
	if err != nil {
		return nil, persistence("set index image", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit transaction", err)
	}
	return img, nil
}

// GetHouseDetail assembles the detail page of a house with at most
// commentLimit of the latest guest comments
func (db *DB) GetHouseDetail(ctx context.Context, id, commentLimit int) (*models.HouseDetail, error) {
	d := &models.HouseDetail{}
	err := scanHouse(db.Pool.QueryRow(ctx,
		"SELECT "+houseColumns+", a.name, u.name, u.avatar_url FROM houses h"+
			" JOIN areas a ON a.id = h.area_id JOIN users u ON u.id = h.user_id WHERE h.id = $1", id),
		&d.House, &d.AreaName, &d.OwnerName, &d.OwnerAvatar)
	if err != nil {
		return nil, lookup("house", id, err)
	}

	if d.ImageURLs, err = db.houseImageURLs(ctx, id); err != nil {
		return nil, err
	}
	if d.Facilities, err = db.houseFacilityIDs(ctx, id); err != nil {
		return nil, err
	}
	if d.Comments, err = db.houseComments(ctx, id, commentLimit); err != nil {
		return nil, err
	}
	return d, nil
}

func (db *DB) houseImageURLs(ctx context.Context, houseID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, "SELECT url FROM house_images WHERE house_id = $1 ORDER BY id", houseID)
	if err != nil {
		return nil, persistence("get house images", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, persistence("scan house image", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (db *DB) houseFacilityIDs(ctx context.Context, houseID int) ([]int, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT facility_id FROM house_facilities WHERE house_id = $1 ORDER BY facility_id", houseID)
	if err != nil {
		return nil, persistence("get house facilities", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var fid int
		if err := rows.Scan(&fid); err != nil {
			return nil, persistence("scan house facility", err)
		}
		ids = append(ids, fid)
	}
	return ids, rows.Err()
}

func (db *DB) houseComments(ctx context.Context, houseID, limit int) ([]models.HouseComment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT u.name, o.comment, o.updated_at FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.house_id = $1 AND o.status = 'COMPLETE' AND o.comment <> ''
		 ORDER BY o.updated_at DESC LIMIT $2`, houseID, limit)
	if err != nil {
		return nil, persistence("get house comments", err)
	}
	defer rows.Close()

	comments := []models.HouseComment{}
	for rows.Next() {
		var c models.HouseComment
		if err := rows.Scan(&c.UserName, &c.Content, &c.CreatedAt); err != nil {
			return nil, persistence("scan house comment", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListUserHouses retrieves the houses a user owns, newest first
func (db *DB) ListUserHouses(ctx context.Context, userID int) ([]models.House, error) {
	return db.queryHouses(ctx, "list user houses",
		"SELECT "+houseColumns+" FROM houses h WHERE h.user_id = $1 ORDER BY h.id DESC", userID)
}

// ListIndexHouses retrieves the most booked houses that have an index image
func (db *DB) ListIndexHouses(ctx context.Context, limit int) ([]models.House, error) {
	return db.queryHouses(ctx, "list index houses",
		"SELECT "+houseColumns+" FROM houses h WHERE h.index_image_url <> ''"+
			" ORDER BY h.order_count DESC, h.id DESC LIMIT $1", limit)
}

func (db *DB) queryHouses(ctx context.Context, op, query string, args ...any) ([]models.House, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, persistence(op, err)
	}
	defer rows.Close()

	houses := []models.House{}
	for rows.Next() {
		var h models.House
		if err := scanHouse(rows, &h); err != nil {
			return nil, persistence("scan house", err)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence(op, err)
	}
	return houses, nil
}
