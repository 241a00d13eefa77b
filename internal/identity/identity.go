package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"

	"kolekta/internal/model"
)

const ErrCodeUnauthenticated = "UNAUTHENTICATED"

// ErrUnauthenticated is returned whenever the caller's identity cannot be
// resolved to an active profile. Every operation fails closed on it.
var ErrUnauthenticated = goerrors.New("unauthenticated", goerrors.CategoryAuth).
	WithTextCode(ErrCodeUnauthenticated)

// Actor is the resolved caller identity. It is passed explicitly into every
// service operation; there is no ambient current-user state.
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) Is(roles ...model.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// ProfileReader is the slice of the profile store the resolver needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

// Resolver turns an authenticated subject into an Actor.
type Resolver interface {
	Resolve(ctx context.Context, subject string) (Actor, error)
}

// StoreResolver resolves actors against the profile store and rejects
// anything but an active profile.
type StoreResolver struct {
	profiles ProfileReader
}

func NewStoreResolver(profiles ProfileReader) *StoreResolver {
	return &StoreResolver{profiles: profiles}
}

func (r *StoreResolver) Resolve(ctx context.Context, subject string) (Actor, error) {
	if subject == "" {
		return Actor{}, ErrUnauthenticated
	}
	profile, err := r.profiles.GetProfile(ctx, subject)
	if err != nil {
		return Actor{}, ErrUnauthenticated
	}
	if profile == nil || profile.Status != model.ProfileStatusActive {
		return Actor{}, ErrUnauthenticated
	}
	return Actor{ID: profile.ID, Role: profile.Role}, nil
}
