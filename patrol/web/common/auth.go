package common

import (
	"time"

	"guardpatrol.com/patrol/security"
)

const DefaultTokenTTL = 12 * time.Hour

// Auth issues session tokens for both apps.
type Auth struct {
	Secret []byte
	TTL    time.Duration
}

func (a Auth) Issue(identity *security.PatrolIdentity) (string, error) {
	ttl := a.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return security.CreateIdentityToken(identity, a.Secret, ttl)
}
