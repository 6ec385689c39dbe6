package domain

// ProviderType identifies an external OAuth identity provider. Registration
// ids arriving from the outside are upper-cased before comparison.
type ProviderType string

const (
	ProviderKakao  ProviderType = "KAKAO"
	ProviderGoogle ProviderType = "GOOGLE"
)

// ProviderLogin is the validated outcome of one external OAuth handshake:
// the raw registration id (case-insensitive), the provider-scoped subject id,
// the user-info attributes exactly as the provider returned them, and the
// attribute key the provider designates as the subject name. It lives for a
// single login request and is never persisted.
type ProviderLogin struct {
	RegistrationID       string
	ExternalID           string
	Attributes           map[string]any
	UsernameAttributeKey string
}

// CanonicalIdentity is the (email, username) pair derived from a provider
// payload. Email is the only key used against the member store.
type CanonicalIdentity struct {
	Email    string
	Username string
}

// Principal is the authenticated identity handed to the session layer after a
// successful federated login. It is immutable after construction.
type Principal struct {
	member       *Member
	authorities  []string
	attributes   map[string]any
	usernameAttr string
}

// NewPrincipal builds a Principal for the given member. Every principal
// produced by the federated login path carries exactly the "member"
// authority.
func NewPrincipal(member *Member, attributes map[string]any, usernameAttributeKey string) *Principal {
	return &Principal{
		member:       member,
		authorities:  []string{"member"},
		attributes:   attributes,
		usernameAttr: usernameAttributeKey,
	}
}

// Member returns the resolved member.
func (p *Principal) Member() *Member {
	return p.member
}

// Authorities returns a copy of the granted authority set.
func (p *Principal) Authorities() []string {
	out := make([]string, len(p.authorities))
	copy(out, p.authorities)
	return out
}

// Attributes returns the raw provider attributes, kept verbatim for
// downstream claim inspection.
func (p *Principal) Attributes() map[string]any {
	return p.attributes
}

// UsernameAttributeKey returns the attribute key the provider designates as
// the subject name.
func (p *Principal) UsernameAttributeKey() string {
	return p.usernameAttr
}
