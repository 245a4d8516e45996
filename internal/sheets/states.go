package sheets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// stateTTL bounds how long an issued OAuth state token stays redeemable.
const stateTTL = 10 * time.Minute

// stateRegistry tracks issued OAuth state tokens. Tokens are single-use and
// expire after a TTL; expired entries are pruned on the next issue.
type stateRegistry struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]time.Time
}

func newStateRegistry(ttl time.Duration) *stateRegistry {
	return &stateRegistry{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]time.Time),
	}
}

// Issue registers and returns a fresh state token.
func (r *stateRegistry) Issue() string {
	token := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	r.states[token] = r.now().Add(r.ttl)
	return token
}

// Consume invalidates a state token and reports whether it was live:
// unknown, expired, and replayed tokens all come back false.
func (r *stateRegistry) Consume(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.states[token]
	if !ok {
		return false
	}
	delete(r.states, token)
	return r.now().Before(expiry)
}

func (r *stateRegistry) prune() {
	now := r.now()
	for token, expiry := range r.states {
		if !now.Before(expiry) {
			delete(r.states, token)
		}
	}
}
