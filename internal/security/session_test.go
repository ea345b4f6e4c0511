package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	g := NewGuestSessions("guest-secret")

	tok, err := g.Issue()
	require.NoError(t, err)
	assert.True(t, g.Validate(tok))

	other, err := g.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestValidateRejectsForgedTokens(t *testing.T) {
	g := NewGuestSessions("guest-secret")
	tok, err := g.Issue()
	require.NoError(t, err)

	id, mac, _ := strings.Cut(tok, ".")
	assert.False(t, g.Validate(id))
	assert.False(t, g.Validate(id+"."))
	assert.False(t, g.Validate("."+mac))
	assert.False(t, g.Validate("forged-id."+mac))
	assert.False(t, g.Validate(""))
	assert.False(t, g.Validate("no-separator"))
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	a := NewGuestSessions("secret-a")
	b := NewGuestSessions("secret-b")

	tok, err := a.Issue()
	require.NoError(t, err)
	assert.False(t, b.Validate(tok))
}
