package provider

import (
	"fmt"

	"github.com/minjae/membership/internal/domain"
)

// KakaoMapper maps Kakao user-info payloads. Kakao nests account fields under
// a "kakao_account" object and does not guarantee an email grant: when
// has_email is false or absent the mapper synthesizes a stable fallback
// address from the subject id.
type KakaoMapper struct{}

func (KakaoMapper) Type() domain.ProviderType {
	return domain.ProviderKakao
}

func (KakaoMapper) Map(externalID string, attributes map[string]any) (domain.CanonicalIdentity, error) {
	account, ok := attributes["kakao_account"].(map[string]any)
	if !ok {
		return domain.CanonicalIdentity{}, fmt.Errorf("%w: kakao_account missing", domain.ErrMalformedPayload)
	}

	email := externalID + "@kakao.com"
	if hasEmail, _ := account["has_email"].(bool); hasEmail {
		granted, ok := account["email"].(string)
		if !ok || granted == "" {
			return domain.CanonicalIdentity{}, fmt.Errorf("%w: has_email set but email missing", domain.ErrMalformedPayload)
		}
		email = granted
	}

	return domain.CanonicalIdentity{
		Email:    email,
		Username: fmt.Sprintf("%s_%s", domain.ProviderKakao, externalID),
	}, nil
}
