// Package provider maps raw OAuth user-info payloads to canonical member
// identities. Mappers are pure: they inspect attributes and return facts,
// making no auth decisions and touching no storage.
package provider

import (
	"fmt"
	"strings"

	"github.com/minjae/membership/internal/domain"
)

// Mapper derives a canonical (email, username) identity from a provider's raw
// attribute payload and the provider-scoped subject id.
type Mapper interface {
	// Type returns the provider this mapper handles.
	Type() domain.ProviderType

	// Map returns the canonical identity for the payload. It fails with
	// domain.ErrMalformedPayload when a required attribute is missing.
	Map(externalID string, attributes map[string]any) (domain.CanonicalIdentity, error)
}

// Registry holds the configured mappers keyed by provider type. Adding a
// provider means registering one more Mapper; nothing downstream changes.
type Registry struct {
	mappers map[domain.ProviderType]Mapper
}

// NewRegistry registers the given mappers by type.
func NewRegistry(list ...Mapper) *Registry {
	m := make(map[domain.ProviderType]Mapper, len(list))
	for _, p := range list {
		m[p.Type()] = p
	}
	return &Registry{mappers: m}
}

// DefaultRegistry returns a registry with every built-in mapper.
func DefaultRegistry() *Registry {
	return NewRegistry(KakaoMapper{}, GoogleMapper{})
}

// Map normalizes the registration id to upper case, dispatches to the
// registered mapper, and fails with domain.ErrUnsupportedProvider when no
// mapper matches. An unknown provider aborts the login attempt.
func (r *Registry) Map(registrationID string, externalID string, attributes map[string]any) (domain.CanonicalIdentity, error) {
	pt := domain.ProviderType(strings.ToUpper(registrationID))
	m, ok := r.mappers[pt]
	if !ok {
		return domain.CanonicalIdentity{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, registrationID)
	}
	return m.Map(externalID, attributes)
}
