package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/minjae/membership/internal/domain"
)

// MemberService handles local registration and profile management.
type MemberService struct {
	store MemberStore
}

// NewMemberService creates a new MemberService.
func NewMemberService(store MemberStore) *MemberService {
	return &MemberService{store: store}
}

// Join registers a local member with a bcrypt-hashed password. A member
// already registered under the email, locally or via a federated login,
// yields domain.ErrConflict.
func (s *MemberService) Join(ctx context.Context, email, username, password string) (*domain.Member, error) {
	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: member %s already joined", domain.ErrConflict, email)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup member %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member, err := s.store.Create(ctx, domain.Member{
		Email:    email,
		Username: username,
		Password: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("join member %s: %w", email, err)
	}
	return member, nil
}

// Authenticate verifies a local email/password login. Federated members carry
// an empty password and can never authenticate locally.
func (s *MemberService) Authenticate(ctx context.Context, email, password string) (*domain.Member, error) {
	member, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup member %s: %w", email, err)
	}

	if member.Federated() {
		return nil, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return member, nil
}

// Get retrieves a member by ID.
func (s *MemberService) Get(ctx context.Context, id int64) (*domain.Member, error) {
	return s.store.FindByID(ctx, id)
}

// Modify changes a member's display name. Username is the only
// member-editable profile field.
func (s *MemberService) Modify(ctx context.Context, id int64, username string) (*domain.Member, error) {
	member, err := s.store.UpdateUsername(ctx, id, username)
	if err != nil {
		return nil, fmt.Errorf("modify member %d: %w", id, err)
	}
	return member, nil
}
