package geocode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// CascadeClient tries providers in order until one resolves the place.
type CascadeClient struct {
	providers []Provider
	communes  *CommunesClient
}

// CascadeOption configures the CascadeClient.
type CascadeOption func(*CascadeClient)

// WithCommunes attaches a communes client. It widens each resolved
// municipality to all of its postal codes and serves ReversePostalCodes.
func WithCommunes(c *CommunesClient) CascadeOption {
	return func(cc *CascadeClient) {
		cc.communes = c
	}
}

// NewCascadeClient creates a CascadeClient that tries providers in order.
func NewCascadeClient(providers []Provider, opts ...CascadeOption) *CascadeClient {
	c := &CascadeClient{providers: providers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve implements Client.
func (c *CascadeClient) Resolve(ctx context.Context, place string) *model.GeoReference {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		ref, err := p.Resolve(ctx, place)
		if err != nil {
			zap.L().Warn("geocode: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.String("place", place),
				zap.Error(err),
			)
			continue
		}
		if ref == nil {
			zap.L().Debug("geocode: provider found nothing",
				zap.String("provider", p.Name()),
				zap.String("place", place),
			)
			continue
		}
		c.widenPostalCodes(ctx, ref)
		return ref
	}

	zap.L().Info("geocode: place not found", zap.String("place", place))
	return nil
}

func (c *CascadeClient) widenPostalCodes(ctx context.Context, ref *model.GeoReference) {
	if c.communes == nil || ref.CityCode == "" {
		return
	}
	codes, err := c.communes.PostalCodes(ctx, ref.CityCode)
	if err != nil {
		zap.L().Debug("geocode: could not widen postal codes",
			zap.String("city_code", ref.CityCode),
			zap.Error(err),
		)
		return
	}
	ref.PostalCodes = sortedSet(ref.PostalCodes, codes)
}

// ReversePostalCodes implements Client. Without a communes client it
// always returns an empty list.
func (c *CascadeClient) ReversePostalCodes(ctx context.Context, center model.Point, radiusKM float64) []string {
	if c.communes == nil || radiusKM <= 0 {
		return []string{}
	}
	return c.communes.ReversePostalCodes(ctx, center, radiusKM)
}
