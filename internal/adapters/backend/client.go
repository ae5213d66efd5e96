// internal/adapters/backend/client.go
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
)

// Client reads room metadata from the booking backend. Read-only here:
// reservations themselves live on chain, the backend only serves catalog
// data (nightly rates, availability flags).
type Client struct {
	base string
	hc   *http.Client
}

func New(base string) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type roomPayload struct {
	ID          string  `json:"id"`
	HotelID     string  `json:"hotelId"`
	NightlyRate float64 `json:"nightlyRate"`
	Available   bool    `json:"available"`
}

func (c *Client) GetRoom(ctx context.Context, hotelID, roomID string) (domain.Room, error) {
	url := fmt.Sprintf("%s/hotels/%s/rooms/%s", c.base, hotelID, roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Room{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("backend", "get_room", 0, time.Since(start))
		if ctx.Err() != nil {
			return domain.Room{}, ctx.Err()
		}
		return domain.Room{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("backend", "get_room", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		var p roomPayload
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return domain.Room{}, err
		}
		return domain.Room{
			ID:           p.ID,
			HotelID:      p.HotelID,
			NightlyRate:  p.NightlyRate,
			Availability: p.Available,
		}, nil
	case http.StatusNotFound:
		return domain.Room{}, domain.ErrNotFound
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Room{}, fmt.Errorf("backend status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
