package auth // package auth provides access-token issuing and confirmation codes

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/policy"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and carried in the Authorization header
// when calling protected endpoints. There is no refresh flow: a client
// whose token expired goes through the confirmation-code exchange again.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT asserting the user's
// identity. The claims carry everything the policy layer needs to make
// decisions without a database round trip: subject, username, role and
// the superuser flag.
func NewAccessToken(secret string, u model.User, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":       u.ID,
		"username":  u.Username,
		"role":      u.Role,
		"superuser": u.IsSuperuser,
		"exp":       exp.Unix(),
		"iat":       time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid access token")

// ParseAccessToken validates a serialized access token and rebuilds the
// caller identity from its claims.
func ParseAccessToken(secret, raw string) (policy.Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return policy.Anonymous, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return policy.Anonymous, ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64) // JWT numbers decode as float64
	if !ok || sub <= 0 {
		return policy.Anonymous, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if !model.ValidRole(role) {
		return policy.Anonymous, ErrInvalidToken
	}
	superuser, _ := claims["superuser"].(bool)

	return policy.Identity{
		ID:            uint64(sub),
		Username:      username,
		Role:          role,
		IsSuperuser:   superuser,
		Authenticated: true,
	}, nil
}
