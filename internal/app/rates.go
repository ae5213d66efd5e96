package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staychain/internal/domain"
)

// RateService serves room metadata through a TTL cache so quote
// verification does not hammer the backend on every booking.
type RateService struct {
	catalog  domain.RoomCatalog
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewRateService(c domain.RoomCatalog, cache domain.Cache, ttl time.Duration) *RateService {
	return &RateService{catalog: c, cache: cache, cacheTTL: ttl}
}

func (s *RateService) GetRoom(ctx context.Context, hotelID, roomID string) (domain.Room, error) {
	key := fmt.Sprintf("room:%s:%s", hotelID, roomID)
	var rm domain.Room
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &rm); ok {
			return rm, nil
		}
	}
	rm, err := s.catalog.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rm, int(s.cacheTTL.Seconds()))
	}
	return rm, nil
}

// VerifyQuote cross-checks the submitted total against nightly rate times
// stay length. The multiplication happens in integer base units: floating
// the product first truncates rate*nights and the client's total to
// different base values for decimal-equal quotes (0.15 over three nights
// floats to 0.44999..., the client's 0.45 does not). One base unit of
// slack absorbs the client's own floor conversion.
func (s *RateService) VerifyQuote(ctx context.Context, req domain.BookingRequest) error {
	rm, err := s.GetRoom(ctx, req.HotelID, req.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.InvalidField("roomId")
		}
		return domain.Failure(domain.InventoryUnavailable, err)
	}
	if !rm.Availability {
		return domain.InvalidField("roomId")
	}
	expected := domain.RoundToBaseUnits(rm.NightlyRate) * int64(req.Nights())
	got := domain.ToBaseUnits(req.TotalCost)
	if diff := got - expected; diff < -1 || diff > 1 {
		return domain.InvalidField("totalCost")
	}
	return nil
}
