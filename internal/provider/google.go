package provider

import (
	"fmt"

	"github.com/minjae/membership/internal/domain"
)

// GoogleMapper maps Google user-info payloads. Google returns the email at
// the top level of the payload and always grants it for the email scope.
type GoogleMapper struct{}

func (GoogleMapper) Type() domain.ProviderType {
	return domain.ProviderGoogle
}

func (GoogleMapper) Map(externalID string, attributes map[string]any) (domain.CanonicalIdentity, error) {
	email, ok := attributes["email"].(string)
	if !ok || email == "" {
		return domain.CanonicalIdentity{}, fmt.Errorf("%w: email missing", domain.ErrMalformedPayload)
	}

	return domain.CanonicalIdentity{
		Email:    email,
		Username: fmt.Sprintf("%s_%s", domain.ProviderGoogle, externalID),
	}, nil
}
