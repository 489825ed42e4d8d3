package auth

import (
	"context"
	"sync"

	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

// TokenSource hands out a usable access token. An empty token with a nil
// error means the client is simply not authenticated.
type TokenSource interface {
	EnsureValidToken(ctx context.Context) (string, error)
}

// AuthCheck is one in-flight coordinator cycle. Every caller that finds it
// in the Store waits on the same result.
type AuthCheck struct {
	done  chan struct{}
	token string
	err   error
}

func newAuthCheck() *AuthCheck {
	return &AuthCheck{done: make(chan struct{})}
}

// Done is closed once the cycle has settled.
func (c *AuthCheck) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycle settles or ctx is done. Giving up does not
// stop the cycle.
func (c *AuthCheck) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.token, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *AuthCheck) settle(token string, err error) {
	c.token = token
	c.err = err
	close(c.done)
}

// Coordinator runs at most one verify-then-refresh cycle at a time and
// shares its outcome with every concurrent caller.
//
// The running cycle is tracked here as well as in the Store, since
// ClearAuth empties the Store's reference and may run mid-cycle.
type Coordinator struct {
	store     *Store
	verifier  Verifier
	refresher Refresher
	metrics   *metrics.Metrics

	mu      sync.Mutex
	running *AuthCheck
}

var _ TokenSource = (*Coordinator)(nil)

// NewCoordinator wires the coordinator. m may be nil.
func NewCoordinator(store *Store, verifier Verifier, refresher Refresher, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		store:     store,
		verifier:  verifier,
		refresher: refresher,
		metrics:   m,
	}
}

// EnsureValidToken returns the stored token if it still verifies, otherwise
// a freshly refreshed one. It returns "" when the client is not
// authenticated and ErrSessionExpired when the refresh credential was
// rejected; that is the only error besides ctx.Err().
func (c *Coordinator) EnsureValidToken(ctx context.Context) (string, error) {
	check, owner := c.begin()
	if owner {
		// The cycle outlives any single caller; others may be waiting on it.
		go c.run(context.WithoutCancel(ctx), check)
	} else {
		c.metrics.AuthCycleJoined()
	}
	return check.Wait(ctx)
}

// begin joins the running cycle or starts a new one, mirroring it into
// the Store.
func (c *Coordinator) begin() (*AuthCheck, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil {
		return c.running, false
	}
	check, owner := c.store.BeginAuthCheck()
	if owner {
		c.running = check
	}
	return check, owner
}

func (c *Coordinator) run(ctx context.Context, check *AuthCheck) {
	token, err := c.cycle(ctx)

	c.mu.Lock()
	if c.running == check {
		c.running = nil
	}
	c.mu.Unlock()
	c.store.EndAuthCheck(check)

	check.settle(token, err)
}

func (c *Coordinator) cycle(ctx context.Context) (string, error) {
	if current := c.store.AccessToken(); current != "" {
		res := c.verifier.Verify(ctx, current)
		if res.IsValid {
			if res.IsNewAccount != nil {
				c.store.SetIsNewAccount(*res.IsNewAccount)
			}
			c.metrics.AuthCycle("valid")
			return current, nil
		}
		log.Debug().Msg("stored access token no longer valid, refreshing")
	}

	refreshed := c.refresher.Refresh(ctx)
	if refreshed.Token != "" {
		c.metrics.Refresh("client", "ok")
		c.store.SetAccessToken(refreshed.Token)

		// Only the onboarding flag depends on this call.
		if res := c.verifier.Verify(ctx, refreshed.Token); res.IsNewAccount != nil {
			c.store.SetIsNewAccount(*res.IsNewAccount)
		}
		c.metrics.AuthCycle("refreshed")
		return refreshed.Token, nil
	}

	c.store.ClearAuth()
	if refreshed.Unauthorized {
		c.metrics.Refresh("client", "unauthorized")
		c.metrics.AuthCycle("expired")
		log.Info().Msg("refresh credential rejected, session expired")
		return "", ErrSessionExpired
	}

	c.metrics.Refresh("client", "failed")
	c.metrics.AuthCycle("anonymous")
	return "", nil
}
