package models

import "time"

// User represents a registered user
type User struct {
	ID           int       `json:"user_id"`
	Mobile       string    `json:"mobile"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar_url"`
	RealName     string    `json:"real_name,omitempty"`
	IDCard       string    `json:"id_card,omitempty"`
	CreatedAt    time.Time `json:"create_time"`
}

// Area is a city district houses are listed in
type Area struct {
	ID   int    `json:"aid"`
	Name string `json:"aname"`
}

// Facility is an amenity a house can offer
type Facility struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// House represents a listing owned by exactly one user.
// Price and Deposit are in minor currency units.
type House struct {
	ID            int       `json:"house_id"`
	UserID        int       `json:"user_id"`
	AreaID        int       `json:"area_id"`
	Title         string    `json:"title"`
	Price         int       `json:"price"`
	Address       string    `json:"address"`
	RoomCount     int       `json:"room_count"`
	Acreage       int       `json:"acreage"`
	Unit          string    `json:"unit"`
	Capacity      int       `json:"capacity"`
	Beds          string    `json:"beds"`
	Deposit       int       `json:"deposit"`
	MinDays       int       `json:"min_days"`
	MaxDays       int       `json:"max_days"` // 0 means unlimited
	OrderCount    int       `json:"order_count"`
	IndexImageURL string    `json:"index_image_url"`
	CreatedAt     time.Time `json:"ctime"`
}

// HouseImage is one uploaded picture of a house
type HouseImage struct {
	ID      int    `json:"id"`
	HouseID int    `json:"house_id"`
	URL     string `json:"url"`
}

// HouseComment is the guest feedback left on a completed order
type HouseComment struct {
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"ctime"`
}

// HouseDetail is the full representation served on the detail page and cached
type HouseDetail struct {
	House
	AreaName    string         `json:"area_name"`
	OwnerName   string         `json:"user_name"`
	OwnerAvatar string         `json:"user_avatar"`
	ImageURLs   []string       `json:"img_urls"`
	Facilities  []int          `json:"facilities"`
	Comments    []HouseComment `json:"comments"`
}

// OrderStatus is the lifecycle state of a booking order
type OrderStatus string

const (
	StatusWaitAccept  OrderStatus = "WAIT_ACCEPT"
	StatusWaitPayment OrderStatus = "WAIT_PAYMENT"
	StatusWaitComment OrderStatus = "WAIT_COMMENT"
	StatusComplete    OrderStatus = "COMPLETE"
	StatusCanceled    OrderStatus = "CANCELED"
	StatusRejected    OrderStatus = "REJECTED"
)

// Order represents a booking of a house for [BeginDate, EndDate)
type Order struct {
	ID         int         `json:"order_id"`
	HouseID    int         `json:"house_id"`
	UserID     int         `json:"user_id"`
	BeginDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	Days       int         `json:"days"`
	HousePrice int         `json:"house_price"`
	Amount     int         `json:"amount"`
	Status     OrderStatus `json:"status"`
	Comment    string      `json:"comment"`
	CreatedAt  time.Time   `json:"ctime"`
	UpdatedAt  time.Time   `json:"utime"`
}

// OrderView is an order joined with the house summary shown in order lists
type OrderView struct {
	Order
	Title    string `json:"title"`
	ImageURL string `json:"img_url"`
}
