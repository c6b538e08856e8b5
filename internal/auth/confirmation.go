package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/title-review-service/internal/model"
)

// Confirmation codes prove email ownership before an access token is
// issued. A code is a signed, self-describing token:
//
//	base64url(uid:exp:state) "." hex(HMAC-SHA256(payload))
//
// exp is the embedded unix expiry and state is a short digest of the
// identity-bearing user fields (username, email, role, superuser flag).
// Any admin edit to those fields changes the state digest and kills
// outstanding codes. Codes are signed with their own secret, separate
// from the JWT secret, so neither credential can mint the other.
//
// Single use is enforced through storage: a bcrypt hash of the code is
// kept on the user row when issued and cleared on successful exchange.

const stateLen = 16 // hex chars of the state digest embedded in codes

// stateMarker digests the user fields a confirmation code is bound to.
func stateMarker(u model.User) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%t", u.Username, u.Email, u.Role, u.IsSuperuser)))
	return hex.EncodeToString(sum[:])[:stateLen]
}

func signPayload(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewConfirmationCode issues a code for the user with the given TTL.
func NewConfirmationCode(secret string, u model.User, ttlMin int) string {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute).Unix()
	payload := fmt.Sprintf("%d:%d:%s", u.ID, exp, stateMarker(u))
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + signPayload(secret, payload)
}

// CheckConfirmationCode verifies a code against the user it claims to
// confirm: signature, expiry, user binding and state binding all have
// to hold. It is pure; the single-use check against the stored hash is
// a separate step (MatchesStoredCode).
func CheckConfirmationCode(secret string, u model.User, code string) bool {
	encoded, mac, ok := strings.Cut(code, ".")
	if !ok {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	payload := string(raw)
	if !hmac.Equal([]byte(mac), []byte(signPayload(secret, payload))) {
		return false
	}

	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return false
	}
	uid, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || uid != u.ID {
		return false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().UTC().Unix() > exp {
		return false
	}
	return parts[2] == stateMarker(u)
}

// HashCode returns a bcrypt hash of the code suitable for at-rest
// storage. The code is digested first because bcrypt only considers 72
// bytes of input and serialized codes are longer than that.
func HashCode(code string, cost int) (string, error) {
	sum := sha256.Sum256([]byte(code))
	b, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(sum[:])), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MatchesStoredCode reports whether code is the one whose hash is on
// record. An empty stored hash means no outstanding code (never issued,
// or already consumed).
func MatchesStoredCode(storedHash, code string) bool {
	if storedHash == "" {
		return false
	}
	sum := sha256.Sum256([]byte(code))
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(hex.EncodeToString(sum[:]))) == nil
}
