package extractor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"medrecon/internal/logger"
	"medrecon/internal/port"
)

// cooldown holds a provider back until a rate limit has expired.
type cooldown struct {
	mu    sync.Mutex
	until time.Time
}

// remaining reports how long the provider must still wait; zero when ready.
func (c *cooldown) remaining(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.until) {
		return c.until.Sub(now)
	}
	return 0
}

func (c *cooldown) hold(until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if until.After(c.until) {
		c.until = until
	}
}

type provider struct {
	name string
	ex   port.TableExtractor
	wait cooldown
}

// FallbackChain tries extractors in order. A provider that answers with a
// rate limit sits out until its retry window passes. It implements
// port.TableExtractor.
type FallbackChain struct {
	providers []*provider
}

// NewFallbackChain creates a FallbackChain from extractors and their
// provider names, in the order they should be tried.
func NewFallbackChain(extractors []port.TableExtractor, names []string) *FallbackChain {
	providers := make([]*provider, len(extractors))
	for i, ex := range extractors {
		providers[i] = &provider{name: names[i], ex: ex}
	}
	return &FallbackChain{providers: providers}
}

// ExtractTables returns the first provider's successful answer. When every
// provider is cooling down or rate limited the result is a RateLimitError
// carrying the shortest wait; any other failure wins over rate limits.
func (f *FallbackChain) ExtractTables(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	log := logger.Component("extractor")
	now := time.Now()

	var (
		lastErr  error
		hardFail bool
		shortest time.Duration = -1
	)
	backoff := func(d time.Duration) {
		if shortest < 0 || d < shortest {
			shortest = d
		}
	}

	for _, p := range f.providers {
		if d := p.wait.remaining(now); d > 0 {
			log.Debug().Str("provider", p.name).Dur("wait", d).Msg("provider cooling down")
			backoff(d)
			continue
		}

		out, err := p.ex.ExtractTables(ctx, input)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Warn().Err(err).Str("provider", p.name).Str("source", input.SourceName).Msg("provider failed")
		lastErr = err

		var rlErr *RateLimitError
		if !errors.As(err, &rlErr) {
			hardFail = true
			continue
		}
		p.wait.hold(now.Add(rlErr.RetryAfter))
		backoff(rlErr.RetryAfter)
	}

	if hardFail {
		return nil, fmt.Errorf("all extractors failed: %w", lastErr)
	}
	return nil, NewRateLimitError("all", errors.New("all extractors rate limited"), retrySeconds(shortest))
}

// retrySeconds rounds d up to whole seconds, never below one.
func retrySeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
