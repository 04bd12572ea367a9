package listing_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/booking/bookingtest"
	"github.com/xtrntr/ihome/internal/listing"
	"github.com/xtrntr/ihome/internal/listing/listingtest"
	"github.com/xtrntr/ihome/internal/models"
	"github.com/xtrntr/ihome/internal/storage"
)

var pngData = []byte("\x89PNG\x0D\x0A\x1A\x0A0000")

type fixture struct {
	repo  *listingtest.MemRepo
	cache *listingtest.MemCache
	svc   *listing.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	images, err := storage.NewLocalStore(t.TempDir(), "/images", 1<<20)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		repo:  listingtest.NewMemRepo(bookingtest.NewMemStore(), []string{"Dongcheng", "Xicheng"}, []string{"wifi", "kitchen"}),
		cache: listingtest.NewMemCache(),
	}
	f.svc = listing.NewService(f.repo, f.cache, images, logger)
	return f
}

func validHouse() listing.NewHouse {
	return listing.NewHouse{
		Title: "Courtyard", Price: 30000, AreaID: 1, Address: "1 Hutong",
		RoomCount: 2, Acreage: 80, Capacity: 4, Facilities: []int{1, 2},
	}
}

func TestService_CreateHouse(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(h *listing.NewHouse)
		expectErr error
	}{
		{name: "Success", mutate: func(h *listing.NewHouse) {}},
		{name: "MissingTitle", mutate: func(h *listing.NewHouse) { h.Title = "" }, expectErr: booking.ErrValidation},
		{name: "ZeroPrice", mutate: func(h *listing.NewHouse) { h.Price = 0 }, expectErr: booking.ErrValidation},
		{name: "NoArea", mutate: func(h *listing.NewHouse) { h.AreaID = 0 }, expectErr: booking.ErrValidation},
		{name: "UnknownArea", mutate: func(h *listing.NewHouse) { h.AreaID = 9 }, expectErr: booking.ErrValidation},
		{name: "NoCapacity", mutate: func(h *listing.NewHouse) { h.Capacity = 0 }, expectErr: booking.ErrValidation},
		{name: "UnknownFacility", mutate: func(h *listing.NewHouse) { h.Facilities = []int{1, 7} }, expectErr: booking.ErrValidation},
		{name: "MaxBelowMin", mutate: func(h *listing.NewHouse) { h.MinDays, h.MaxDays = 3, 2 }, expectErr: booking.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			nh := validHouse()
			tt.mutate(&nh)

			house, err := f.svc.CreateHouse(context.Background(), 5, nh)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5, house.UserID)
			assert.Equal(t, 1, house.MinDays, "min days defaults to one")
			assert.Equal(t, 0, house.OrderCount)
		})
	}
}

func TestService_AddHouseImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	house, err := f.svc.CreateHouse(ctx, 5, validHouse())
	require.NoError(t, err)

	_, err = f.svc.AddHouseImage(ctx, 6, house.ID, pngData)
	assert.ErrorIs(t, err, booking.ErrPolicy)

	_, err = f.svc.AddHouseImage(ctx, 5, 999, pngData)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = f.svc.AddHouseImage(ctx, 5, house.ID, []byte("plain text"))
	assert.ErrorIs(t, err, booking.ErrValidation)

	first, err := f.svc.AddHouseImage(ctx, 5, house.ID, pngData)
	require.NoError(t, err)
	second, err := f.svc.AddHouseImage(ctx, 5, house.ID, pngData)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	d, err := f.svc.HouseDetail(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, first, d.IndexImageURL, "first image becomes the index image")
	assert.Equal(t, []string{first, second}, d.ImageURLs)
	assert.Equal(t, []int{1, 2}, d.Facilities)
	assert.Equal(t, "Dongcheng", d.AreaName)
	assert.Equal(t, []int{house.ID, house.ID}, f.cache.Invalidated)
}

func TestService_HouseDetailIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	house, err := f.svc.CreateHouse(ctx, 5, validHouse())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d, err := f.svc.HouseDetail(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, "Courtyard", d.Title)
	}
	assert.Equal(t, 1, f.repo.Calls["GetHouseDetail"])

	require.NoError(t, f.cache.Invalidate(ctx, house.ID))
	_, err = f.svc.HouseDetail(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.Calls["GetHouseDetail"])

	_, err = f.svc.HouseDetail(ctx, 999)
	assert.ErrorIs(t, err, booking.ErrNotFound)
	_, err = f.svc.HouseDetail(ctx, 0)
	assert.ErrorIs(t, err, booking.ErrValidation)
}

func TestService_CacheFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	house, err := f.svc.CreateHouse(ctx, 5, validHouse())
	require.NoError(t, err)

	f.cache.Err = errors.New("circuit breaker is open")

	areas, err := f.svc.Areas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 2)

	d, err := f.svc.HouseDetail(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, house.ID, d.ID)

	_, err = f.svc.AddHouseImage(ctx, 5, house.ID, pngData)
	assert.NoError(t, err, "invalidation failure is not fatal")
}

func TestService_Areas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		areas, err := f.svc.Areas(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Area{{ID: 1, Name: "Dongcheng"}, {ID: 2, Name: "Xicheng"}}, areas)
	}
	assert.Equal(t, 1, f.repo.Calls["ListAreas"])
}

func TestService_Index(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int
	for i := 0; i < 7; i++ {
		h, err := f.svc.CreateHouse(ctx, 5, validHouse())
		require.NoError(t, err)
		ids = append(ids, h.ID)
		if i > 0 {
			_, err = f.svc.AddHouseImage(ctx, 5, h.ID, pngData)
			require.NoError(t, err)
		}
	}

	houses, err := f.svc.Index(ctx)
	require.NoError(t, err)
	require.Len(t, houses, listing.IndexSize)
	for _, h := range houses {
		assert.NotEqual(t, ids[0], h.ID, "houses without an image are not on the index")
		assert.NotEmpty(t, h.IndexImageURL)
	}

	_, err = f.svc.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Calls["ListIndexHouses"])

	require.NoError(t, f.svc.RefreshIndex(ctx))
	assert.Equal(t, 2, f.repo.Calls["ListIndexHouses"])
}

func TestService_UserHouses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.CreateHouse(ctx, 5, validHouse())
	require.NoError(t, err)
	_, err = f.svc.CreateHouse(ctx, 6, validHouse())
	require.NoError(t, err)
	b, err := f.svc.CreateHouse(ctx, 5, validHouse())
	require.NoError(t, err)

	houses, err := f.svc.UserHouses(ctx, 5)
	require.NoError(t, err)
	require.Len(t, houses, 2)
	assert.Equal(t, b.ID, houses[0].ID)
	assert.Equal(t, a.ID, houses[1].ID)

	houses, err = f.svc.UserHouses(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, houses)
}
