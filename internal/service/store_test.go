package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minjae/membership/internal/domain"
)

// memStore is an in-memory MemberStore enforcing the unique-email constraint,
// with hooks for injecting failures and counting writes.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	byEmail map[string]domain.Member

	creates   int
	createErr error
	findErr   error
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]domain.Member)}
}

func (s *memStore) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.byEmail {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	m, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := m
	return &out, nil
}

func (s *memStore) Create(ctx context.Context, member domain.Member) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return nil, err
	}
	if _, ok := s.byEmail[member.Email]; ok {
		return nil, fmt.Errorf("%w: member %s already exists", domain.ErrConflict, member.Email)
	}
	s.seq++
	member.ID = s.seq
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	s.byEmail[member.Email] = member
	out := member
	return &out, nil
}

func (s *memStore) UpdateUsername(ctx context.Context, id int64, username string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, m := range s.byEmail {
		if m.ID == id {
			m.Username = username
			m.UpdatedAt = time.Now()
			s.byEmail[email] = m
			out := m
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

// seed inserts a member directly, bypassing the create counter.
func (s *memStore) seed(member domain.Member) domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	member.ID = s.seq
	s.byEmail[member.Email] = member
	return member
}
