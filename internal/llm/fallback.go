package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/curiolabs/curio/internal/logging"
)

// DefaultFallbackPause is how long to wait after a rate-limit error before
// trying the next model in the chain.
const DefaultFallbackPause = 2 * time.Second

// FallbackProvider wraps a Provider with a model fallback chain. When a
// model fails with a recoverable error (rate limit, server overload,
// transient network failure) the next model in the chain is tried.
// Non-recoverable errors (bad API key, malformed request) fail immediately.
type FallbackProvider struct {
	inner  Provider
	models []string
	pause  time.Duration
}

// NewFallbackProvider creates a fallback chain over inner. models lists the
// chain in priority order, primary first. An empty chain passes requests
// through unchanged.
func NewFallbackProvider(inner Provider, models []string) *FallbackProvider {
	return &FallbackProvider{
		inner:  inner,
		models: models,
		pause:  DefaultFallbackPause,
	}
}

// Name returns the wrapped provider's identifier.
func (p *FallbackProvider) Name() string {
	return p.inner.Name()
}

// Available reports whether the wrapped provider is usable.
func (p *FallbackProvider) Available() bool {
	return p.inner.Available()
}

// Models returns the fallback chain in priority order.
func (p *FallbackProvider) Models() []string {
	out := make([]string, len(p.models))
	copy(out, p.models)
	return out
}

// Unwrap returns the underlying provider.
func (p *FallbackProvider) Unwrap() Provider {
	return p.inner
}

// Chat tries each model in the chain until one succeeds. A request that
// names a model explicitly puts that model at the head of the chain.
// The response's Model field reports which model actually answered.
func (p *FallbackProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	chain := p.chainFor(req.Model)
	if len(chain) == 0 {
		return p.inner.Chat(ctx, req)
	}

	log := logging.Global().WithComponent("llm")

	var lastErr error
	for i, model := range chain {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		attempt := *req
		attempt.Model = model

		resp, err := p.inner.Chat(ctx, &attempt)
		if err == nil {
			if i > 0 {
				log.Info("model %s answered after %d failed attempt(s)", model, i)
			}
			return resp, nil
		}
		lastErr = err

		if !IsRecoverableAPIError(err) {
			return nil, err
		}

		if i == len(chain)-1 {
			break
		}

		log.Warn("model %s failed (%v), falling back to %s", model, err, chain[i+1])

		// Free-tier quotas reset per minute; a short pause keeps the next
		// model from hitting the same window.
		if IsRateLimitError(err) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.pause):
			}
		}
	}

	return nil, fmt.Errorf("all models failed (tried %s): %w", strings.Join(chain, ", "), lastErr)
}

// chainFor builds the model order for one request. An explicit request
// model goes first; duplicates are dropped.
func (p *FallbackProvider) chainFor(requested string) []string {
	if requested == "" {
		return p.models
	}
	chain := make([]string, 0, len(p.models)+1)
	chain = append(chain, requested)
	for _, m := range p.models {
		if m != requested {
			chain = append(chain, m)
		}
	}
	return chain
}

// recoverableAPIPatterns are error substrings worth retrying on another
// model: quota exhaustion, server-side failures, and transient network
// errors. Auth failures (401, 403, invalid key) are absent on purpose:
// every model in the chain shares the same key, so retrying cannot help.
var recoverableAPIPatterns = []string{
	// Rate limiting and quota
	"429",
	"rate limit",
	"quota",
	"resource_exhausted",
	"too many requests",
	// Server-side failures
	"500",
	"502",
	"503",
	"504",
	"internal error",
	"service unavailable",
	"overloaded",
	// Network transients
	"timeout",
	"connection refused",
	"connection reset",
	"unexpected EOF",
}

// rateLimitPatterns is the quota-related subset of recoverable errors.
var rateLimitPatterns = []string{
	"429",
	"rate limit",
	"quota",
	"resource_exhausted",
	"too many requests",
}

// IsRecoverableAPIError reports whether err looks like a transient API
// failure that a different model might survive.
func IsRecoverableAPIError(err error) bool {
	return matchesAny(err, recoverableAPIPatterns)
}

// IsRateLimitError reports whether err looks like quota exhaustion.
func IsRateLimitError(err error) bool {
	return matchesAny(err, rateLimitPatterns)
}

func matchesAny(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
