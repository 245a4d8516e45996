package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRegistryIssueAndConsume(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	token := registry.Issue()
	require.NotEmpty(t, token)

	assert.True(t, registry.Consume(token))
}

func TestStateRegistryRejectsUnknownToken(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	assert.False(t, registry.Consume("never-issued"))
}

func TestStateRegistryRejectsReplay(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	token := registry.Issue()
	require.True(t, registry.Consume(token))

	assert.False(t, registry.Consume(token))
}

func TestStateRegistryRejectsExpiredToken(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	current := time.Now()
	registry.now = func() time.Time { return current }

	token := registry.Issue()
	current = current.Add(stateTTL + time.Second)

	assert.False(t, registry.Consume(token))
}

func TestStateRegistryTokensAreUnique(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := registry.Issue()
		require.False(t, seen[token], "token issued twice: %s", token)
		seen[token] = true
	}
}

func TestStateRegistryPrunesExpiredOnIssue(t *testing.T) {
	registry := newStateRegistry(stateTTL)

	current := time.Now()
	registry.now = func() time.Time { return current }

	stale := registry.Issue()
	current = current.Add(stateTTL + time.Minute)
	_ = registry.Issue()

	registry.mu.Lock()
	_, ok := registry.states[stale]
	registry.mu.Unlock()
	assert.False(t, ok, "expired state should have been pruned")
}
