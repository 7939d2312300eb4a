package identity

import (
	"errors"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/openexam/exam-engine/internal/config"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what the engine knows about a caller. The examinee ID is an
// opaque string owned by the identity provider; the engine never interprets
// it beyond equality checks.
type Identity struct {
	ID         string
	Name       string
	Instructor bool
}

// Provider resolves a bearer token into an identity.
type Provider interface {
	Authenticate(token string) (*Identity, error)
}

// CasdoorProvider validates Casdoor-issued JWTs.
type CasdoorProvider struct {
	client *casdoorsdk.Client
}

func NewCasdoorProvider(cfg config.CasdoorConfig) *CasdoorProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorProvider{client: client}
}

func (p *CasdoorProvider) Authenticate(token string) (*Identity, error) {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ID:         claims.User.Id,
		Name:       claims.User.Name,
		Instructor: claims.User.IsAdmin || hasTag(claims.User.Tag, "instructor"),
	}, nil
}

func hasTag(tag, want string) bool {
	for _, t := range strings.Split(tag, ",") {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}

// StaticProvider maps fixed tokens to identities, for tests and local
// development without a Casdoor instance.
type StaticProvider struct {
	Identities map[string]Identity
}

func (p *StaticProvider) Authenticate(token string) (*Identity, error) {
	id, ok := p.Identities[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
