package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/minjae/membership/internal/domain"
)

// MemberStore defines the member data access interface consumed by the
// services.
type MemberStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Member, error)
	FindByEmail(ctx context.Context, email string) (*domain.Member, error)
	Create(ctx context.Context, member domain.Member) (*domain.Member, error)
	UpdateUsername(ctx context.Context, id int64, username string) (*domain.Member, error)
}

// MemberResolver finds the member a canonical identity belongs to, creating
// one on first login. It is the only place where identity-to-member mapping
// logic lives.
type MemberResolver struct {
	store MemberStore
	group singleflight.Group
}

// NewMemberResolver creates a new MemberResolver.
func NewMemberResolver(store MemberStore) *MemberResolver {
	return &MemberResolver{store: store}
}

// Resolve returns the member for the given canonical identity. An existing
// member is returned as-is: a stored username is never overwritten by a later
// login under a changed external display name. A missing member is provisioned
// with an empty password. The email is used exactly as derived; no case
// folding or trimming is applied.
func (r *MemberResolver) Resolve(ctx context.Context, identity domain.CanonicalIdentity) (*domain.Member, error) {
	member, err := r.store.FindByEmail(ctx, identity.Email)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup member %s: %w", identity.Email, err)
	}

	// Concurrent first logins for the same email collapse into one create.
	v, err, _ := r.group.Do(identity.Email, func() (any, error) {
		return r.provision(ctx, identity)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Member), nil
}

func (r *MemberResolver) provision(ctx context.Context, identity domain.CanonicalIdentity) (*domain.Member, error) {
	member, err := r.store.Create(ctx, domain.Member{
		Email:    identity.Email,
		Username: identity.Username,
		Password: "",
	})
	if err == nil {
		return member, nil
	}

	// A unique violation means another request created the member between our
	// lookup and the insert. Re-read once and return the winner.
	if errors.Is(err, domain.ErrConflict) {
		existing, lookupErr := r.store.FindByEmail(ctx, identity.Email)
		if lookupErr != nil {
			return nil, fmt.Errorf("reread member %s after create race: %w", identity.Email, lookupErr)
		}
		return existing, nil
	}

	return nil, fmt.Errorf("provision member %s: %w", identity.Email, err)
}
