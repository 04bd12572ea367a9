// Package listing manages houses and the read models built from them:
// areas, house details and the home page index. Reads go through the cache
// when one is configured and fall back to the repository on any cache error.
package listing

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
	"github.com/xtrntr/ihome/internal/storage"
)

const (
	// CommentLimit is the number of guest comments shown on a house detail
	CommentLimit = 30
	// IndexSize is the number of houses on the home page
	IndexSize = 5
)

// Repository is the house persistence the listing service needs
type Repository interface {
	ListAreas(ctx context.Context) ([]models.Area, error)
	ListFacilities(ctx context.Context) ([]models.Facility, error)
	CreateHouse(ctx context.Context, h *models.House, facilities []int) (*models.House, error)
	GetHouse(ctx context.Context, id int) (*models.House, error)
	AddHouseImage(ctx context.Context, houseID int, url string) (*models.HouseImage, error)
	GetHouseDetail(ctx context.Context, id, commentLimit int) (*models.HouseDetail, error)
	ListUserHouses(ctx context.Context, userID int) ([]models.House, error)
	ListIndexHouses(ctx context.Context, limit int) ([]models.House, error)
}

// Cache holds the read models. A false found flag is a miss.
type Cache interface {
	GetAreas(ctx context.Context) ([]models.Area, bool, error)
	SetAreas(ctx context.Context, areas []models.Area) error
	GetHouseDetail(ctx context.Context, houseID int) (*models.HouseDetail, bool, error)
	SetHouseDetail(ctx context.Context, d *models.HouseDetail) error
	GetIndex(ctx context.Context) ([]models.House, bool, error)
	SetIndex(ctx context.Context, houses []models.House) error
	Invalidate(ctx context.Context, houseID int) error
}

// NewHouse is the data a landlord submits to list a house
type NewHouse struct {
	Title      string `json:"title" validate:"required,max=64"`
	Price      int    `json:"price" validate:"gt=0"`
	AreaID     int    `json:"area_id" validate:"gt=0"`
	Address    string `json:"address" validate:"required,max=512"`
	RoomCount  int    `json:"room_count" validate:"gte=1"`
	Acreage    int    `json:"acreage" validate:"gte=1"`
	Unit       string `json:"unit" validate:"max=32"`
	Capacity   int    `json:"capacity" validate:"gte=1"`
	Beds       string `json:"beds" validate:"max=64"`
	Deposit    int    `json:"deposit" validate:"gte=0"`
	MinDays    int    `json:"min_days" validate:"gte=0"`
	MaxDays    int    `json:"max_days" validate:"gte=0"`
	Facilities []int  `json:"facility" validate:"dive,gt=0"`
}

// Service serves listing operations
type Service struct {
	repo     Repository
	cache    Cache
	images   storage.ImageStore
	logger   *logrus.Logger
	validate *validator.Validate
}

// NewService creates a listing service. cache may be nil.
func NewService(repo Repository, cache Cache, images storage.ImageStore, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		images:   images,
		logger:   logger,
		validate: validator.New(),
	}
}

// Areas returns all areas, cached
func (s *Service) Areas(ctx context.Context) ([]models.Area, error) {
	if s.cache != nil {
		areas, ok, err := s.cache.GetAreas(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read areas from cache")
		} else if ok {
			return areas, nil
		}
	}

	areas, err := s.repo.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAreas(ctx, areas); err != nil {
			s.logger.WithError(err).Warn("Failed to cache areas")
		}
	}
	return areas, nil
}

// CreateHouse lists a new house owned by ownerID
func (s *Service) CreateHouse(ctx context.Context, ownerID int, nh NewHouse) (*models.House, error) {
	if err := s.validate.Struct(nh); err != nil {
		return nil, fmt.Errorf("%w: %s", booking.ErrValidation, err)
	}
	if nh.MinDays == 0 {
		nh.MinDays = 1
	}
	if nh.MaxDays != 0 && nh.MaxDays < nh.MinDays {
		return nil, fmt.Errorf("%w: max_days must be 0 or at least min_days", booking.ErrValidation)
	}
	if err := s.checkFacilities(ctx, nh.Facilities); err != nil {
		return nil, err
	}

	house, err := s.repo.CreateHouse(ctx, &models.House{
		UserID:    ownerID,
		AreaID:    nh.AreaID,
		Title:     nh.Title,
		Price:     nh.Price,
		Address:   nh.Address,
		RoomCount: nh.RoomCount,
		Acreage:   nh.Acreage,
		Unit:      nh.Unit,
		Capacity:  nh.Capacity,
		Beds:      nh.Beds,
		Deposit:   nh.Deposit,
		MinDays:   nh.MinDays,
		MaxDays:   nh.MaxDays,
	}, nh.Facilities)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"house_id": house.ID, "user_id": ownerID}).Info("House listed")
	return house, nil
}

func (s *Service) checkFacilities(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	known, err := s.repo.ListFacilities(ctx)
	if err != nil {
		return err
	}
	valid := make(map[int]bool, len(known))
	for _, f := range known {
		valid[f.ID] = true
	}
	for _, id := range ids {
		if !valid[id] {
			return fmt.Errorf("%w: unknown facility %d", booking.ErrValidation, id)
		}
	}
	return nil
}

// AddHouseImage stores an image for a house the caller owns and returns its URL
func (s *Service) AddHouseImage(ctx context.Context, ownerID, houseID int, data []byte) (string, error) {
	house, err := s.repo.GetHouse(ctx, houseID)
	if err != nil {
		return "", err
	}
	if house.UserID != ownerID {
		return "", fmt.Errorf("%w: only the owner can add images to house %d", booking.ErrPolicy, houseID)
	}

	key, err := s.images.Put(ctx, data)
	if err != nil {
		return "", err
	}
	url := s.images.URL(key)
	if _, err := s.repo.AddHouseImage(ctx, houseID, url); err != nil {
		return "", err
	}
	s.invalidate(ctx, houseID)
	return url, nil
}

// HouseDetail returns the full detail of a house, cached
func (s *Service) HouseDetail(ctx context.Context, houseID int) (*models.HouseDetail, error) {
	if houseID <= 0 {
		return nil, fmt.Errorf("%w: house id is required", booking.ErrValidation)
	}
	if s.cache != nil {
		d, ok, err := s.cache.GetHouseDetail(ctx, houseID)
		if err != nil {
			s.logger.WithError(err).WithField("house_id", houseID).Warn("Failed to read house from cache")
		} else if ok {
			return d, nil
		}
	}

	d, err := s.repo.GetHouseDetail(ctx, houseID, CommentLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetHouseDetail(ctx, d); err != nil {
			s.logger.WithError(err).WithField("house_id", houseID).Warn("Failed to cache house")
		}
	}
	return d, nil
}

// Index returns the houses shown on the home page, cached
func (s *Service) Index(ctx context.Context) ([]models.House, error) {
	if s.cache != nil {
		houses, ok, err := s.cache.GetIndex(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read index from cache")
		} else if ok {
			return houses, nil
		}
	}
	return s.loadIndex(ctx)
}

// RefreshIndex rebuilds the cached home page from the repository
func (s *Service) RefreshIndex(ctx context.Context) error {
	_, err := s.loadIndex(ctx)
	return err
}

func (s *Service) loadIndex(ctx context.Context) ([]models.House, error) {
	houses, err := s.repo.ListIndexHouses(ctx, IndexSize)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetIndex(ctx, houses); err != nil {
			s.logger.WithError(err).Warn("Failed to cache index")
		}
	}
	return houses, nil
}

// UserHouses returns the houses ownerID listed, newest first
func (s *Service) UserHouses(ctx context.Context, ownerID int) ([]models.House, error) {
	return s.repo.ListUserHouses(ctx, ownerID)
}

func (s *Service) invalidate(ctx context.Context, houseID int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, houseID); err != nil {
		s.logger.WithError(err).WithField("house_id", houseID).Warn("Failed to invalidate house cache")
	}
}
