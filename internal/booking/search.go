package booking

import (
	"context"
	"fmt"

	"github.com/xtrntr/ihome/internal/models"
)

// SearchQuery carries the optional filters of the house list page
type SearchQuery struct {
	AreaID int
	Begin  string
	End    string
	Sort   string
	Page   int
}

// SearchResult is one page of houses
type SearchResult struct {
	Houses      []models.House `json:"houses"`
	CurrentPage int            `json:"current_page"`
	TotalPage   int            `json:"total_page"`
}

// SearchHouses lists houses free over the requested dates. Houses holding an
// occupying order that overlaps the dates are excluded first, then the area
// filter, sort key and pagination apply. Without dates the conflict query
// is skipped.
func (s *Service) SearchHouses(ctx context.Context, q SearchQuery) (SearchResult, error) {
	w, err := ParseWindow(q.Begin, q.End)
	if err != nil {
		return SearchResult{}, err
	}
	if q.AreaID < 0 {
		return SearchResult{}, fmt.Errorf("%w: area id must not be negative", ErrValidation)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	f := HouseFilter{
		AreaID: q.AreaID,
		Sort:   ParseSortKey(q.Sort),
		Limit:  s.pageSize,
		Offset: (page - 1) * s.pageSize,
	}
	if !w.IsZero() {
		ids, err := s.store.ConflictingHouseIDs(ctx, w)
		if err != nil {
			return SearchResult{}, classify("find conflicting houses", err)
		}
		f.Exclude = ids
	}

	houses, total, err := s.store.SearchHouses(ctx, f)
	if err != nil {
		return SearchResult{}, classify("search houses", err)
	}
	if houses == nil {
		houses = []models.House{}
	}
	return SearchResult{
		Houses:      houses,
		CurrentPage: page,
		TotalPage:   (total + s.pageSize - 1) / s.pageSize,
	}, nil
}
