// README: Location selection: resolve to coordinates, then remember as recently used.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"ridebook/internal/types"
)

var ErrUnresolvable = errors.New("location cannot be resolved")

// Resolver turns an address or place id into coordinates. maps.Geocoder implements it.
type Resolver interface {
	Resolve(ctx context.Context, address string) (types.Location, error)
	ResolvePlace(ctx context.Context, placeID string) (types.Location, error)
}

type Service struct {
	store    *Store
	resolver Resolver
	log      logrus.FieldLogger
}

// NewService accepts a nil store (no history) or a nil resolver (only
// already-resolved locations are accepted).
func NewService(store *Store, resolver Resolver, log logrus.FieldLogger) *Service {
	return &Service{store: store, resolver: resolver, log: log}
}

// Resolve returns in unchanged when it already has an address and coordinates.
func (s *Service) Resolve(ctx context.Context, in types.Location) (types.Location, error) {
	if in.Resolved() {
		return in, nil
	}
	if s.resolver == nil {
		return types.Location{}, ErrUnresolvable
	}

	var (
		out types.Location
		err error
	)
	switch {
	case in.PlaceID != "":
		out, err = s.resolver.ResolvePlace(ctx, in.PlaceID)
	case strings.TrimSpace(in.Address) != "":
		out, err = s.resolver.Resolve(ctx, in.Address)
	default:
		return types.Location{}, ErrUnresolvable
	}
	if err != nil {
		return types.Location{}, fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}
	if !out.Resolved() {
		return types.Location{}, ErrUnresolvable
	}
	return out, nil
}

// Select resolves a location picked by the user and records it in their history.
func (s *Service) Select(ctx context.Context, userID string, in types.Location) (types.Location, error) {
	loc, err := s.Resolve(ctx, in)
	if err != nil {
		return types.Location{}, err
	}
	if s.store != nil && userID != "" {
		if err := s.store.Remember(ctx, userID, loc); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("remember location failed")
		}
	}
	return loc, nil
}

func (s *Service) Recent(ctx context.Context, userID string) ([]types.Location, error) {
	if s.store == nil {
		return []types.Location{}, nil
	}
	return s.store.Recent(ctx, userID)
}
