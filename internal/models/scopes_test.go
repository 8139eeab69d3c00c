package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_HasScope(t *testing.T) {
	t.Parallel()

	t.Run("scope present", func(t *testing.T) {
		t.Parallel()
		p := Principal{Subject: "alice", Scopes: ScopeList{ScopeUserMe, ScopeMemesCreate}}
		assert.True(t, p.HasScope(ScopeUserMe))
		assert.True(t, p.HasScope(ScopeMemesCreate))
	})

	t.Run("scope absent", func(t *testing.T) {
		t.Parallel()
		p := Principal{Subject: "alice", Scopes: ScopeList{ScopeUserMe}}
		assert.False(t, p.HasScope(ScopeUserDelete))
		assert.False(t, p.HasScope(ScopeUserAll))
	})

	t.Run("admin bypasses every check", func(t *testing.T) {
		t.Parallel()
		p := Principal{Subject: "root", Scopes: ScopeList{ScopeAdmin}}
		assert.True(t, p.IsAdmin())
		assert.True(t, p.HasScope(ScopeUserMe))
		assert.True(t, p.HasScope(ScopeUserDelete))
		assert.True(t, p.HasScope(ScopeMemesCreate))
	})

	t.Run("empty scope set", func(t *testing.T) {
		t.Parallel()
		p := Principal{Subject: "nobody"}
		assert.False(t, p.IsAdmin())
		assert.False(t, p.HasScope(ScopeUserMe))
	})
}

func TestPrincipal_Owns(t *testing.T) {
	t.Parallel()

	p := Principal{Subject: "alice", Scopes: ScopeList{ScopeAdmin}}
	assert.True(t, p.Owns("alice"))
	// Ownership is identity, not capability: admin does not own other users.
	assert.False(t, p.Owns("bob"))
}

func TestDefaultUserScopes(t *testing.T) {
	t.Parallel()

	scopes := DefaultUserScopes()
	assert.ElementsMatch(t, ScopeList{
		ScopeUserMe, ScopeMemesAll, ScopeMemesCreate, ScopeMemesUpdate, ScopeMemesDelete,
	}, scopes)
	assert.False(t, scopes.Contains(ScopeAdmin))
	assert.False(t, scopes.Contains(ScopeUserAll))
}

func TestScopeList_ValueScanRoundTrip(t *testing.T) {
	t.Parallel()

	original := ScopeList{ScopeUserMe, ScopeMemesAll}
	v, err := original.Value()
	assert.NoError(t, err)

	var decoded ScopeList
	assert.NoError(t, decoded.Scan(v))
	assert.Equal(t, original, decoded)

	var fromNil ScopeList
	assert.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}
