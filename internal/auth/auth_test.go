package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/model"
)

const testSecret = "test-secret"

func testUser() model.User {
	return model.User{
		ID:       42,
		Username: "bob",
		Email:    "bob@x.com",
		Role:     model.RoleUser,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	u := testUser()
	u.Role = model.RoleModerator
	u.IsSuperuser = true

	tok, err := NewAccessToken(testSecret, u, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, uint64(42), id.ID)
	assert.Equal(t, "bob", id.Username)
	assert.Equal(t, model.RoleModerator, id.Role)
	assert.True(t, id.IsSuperuser)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testUser(), 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmationCodeValid(t *testing.T) {
	u := testUser()
	code := NewConfirmationCode(testSecret, u, 30)
	assert.True(t, CheckConfirmationCode(testSecret, u, code))
}

func TestConfirmationCodeRejectsTampering(t *testing.T) {
	u := testUser()
	code := NewConfirmationCode(testSecret, u, 30)

	assert.False(t, CheckConfirmationCode(testSecret, u, code+"x"), "altered mac")
	assert.False(t, CheckConfirmationCode("other", u, code), "wrong secret")

	other := u
	other.ID = 43
	assert.False(t, CheckConfirmationCode(testSecret, other, code), "different user")
}

func TestConfirmationCodeDiesWhenIdentityChanges(t *testing.T) {
	u := testUser()
	code := NewConfirmationCode(testSecret, u, 30)

	changed := u
	changed.Role = model.RoleAdmin
	assert.False(t, CheckConfirmationCode(testSecret, changed, code),
		"a role change must invalidate outstanding codes")

	changed = u
	changed.Email = "new@x.com"
	assert.False(t, CheckConfirmationCode(testSecret, changed, code),
		"an email change must invalidate outstanding codes")
}

func TestConfirmationCodeExpiry(t *testing.T) {
	u := testUser()
	code := NewConfirmationCode(testSecret, u, -1) // already expired
	assert.False(t, CheckConfirmationCode(testSecret, u, code))
}

func TestStoredCodeHash(t *testing.T) {
	u := testUser()
	code := NewConfirmationCode(testSecret, u, 30)

	hash, err := HashCode(code, 4) // min cost keeps the test fast
	require.NoError(t, err)

	assert.True(t, MatchesStoredCode(hash, code))
	assert.False(t, MatchesStoredCode(hash, code+"x"))
	assert.False(t, MatchesStoredCode("", code), "cleared hash means consumed")
}
