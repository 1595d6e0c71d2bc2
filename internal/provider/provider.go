package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/ellie/internal/logging"
	"github.com/petasbytes/ellie/memory"
)

// Generation parameters applied by every concrete generator unless overridden.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.9
	DefaultTimeout     = 30 * time.Second
)

// ErrEmptyResponse is returned by generators when the call succeeded but no
// usable text came back (filtered content, no candidates).
var ErrEmptyResponse = errors.New("provider returned no text")

// Generator is a single request/response call to a text-generation provider.
type Generator interface {
	Generate(ctx context.Context, systemText, userText string) (string, error)
}

// Request is everything needed for one generation call. Built fresh per call.
type Request struct {
	AgentName     string
	SystemPersona string
	StaticContext string
	RecentMemory  []memory.Entry
	AnchorText    string
	UserText      string
}

// FailureKind classifies why a generation produced no reply.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureRateLimited
	FailureUnauthorized
	FailureModelUnavailable
	FailureEmpty
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureRateLimited:
		return "rate_limited"
	case FailureUnauthorized:
		return "unauthorized"
	case FailureModelUnavailable:
		return "model_unavailable"
	case FailureEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Outcome is either a success carrying Text or a failure carrying Failure.
type Outcome struct {
	Text    string
	Failure FailureKind
}

func Succeeded(text string) Outcome { return Outcome{Text: text} }

func Failed(kind FailureKind) Outcome {
	if kind == FailureNone {
		kind = FailureUnknown
	}
	return Outcome{Failure: kind}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Failure == FailureNone }

// Provider errors can carry whole response bodies.
const maxLoggedErrorChars = 500

// Adapter wraps a Generator with rendering, a call timeout, and failure
// classification. Generate never returns an error or panics.
type Adapter struct {
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
}

type AdapterOptions struct {
	// Timeout bounds each provider call; <= 0 disables it.
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewAdapter(gen Generator, opts AdapterOptions) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{gen: gen, timeout: opts.Timeout, logger: logger}
}

func (a *Adapter) Generate(ctx context.Context, req Request) (out Outcome) {
	if a.gen == nil {
		a.logger.Error("generation skipped: no generator configured")
		return Failed(FailureUnknown)
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("generator panicked", zap.Any("panic", r))
			out = Failed(FailureUnknown)
		}
	}()

	system, user := Render(req)

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.gen.Generate(callCtx, system, user)
	if err != nil {
		kind := Classify(err)
		a.logger.Warn("generation failed",
			zap.String("kind", kind.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.Truncate(fmt.Sprintf("%T: %v", err, err), maxLoggedErrorChars)))
		return Failed(kind)
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Warn("generation returned empty text", zap.Duration("elapsed", time.Since(start)))
		return Failed(FailureEmpty)
	}
	a.logger.Debug("generation succeeded", zap.Duration("elapsed", time.Since(start)), zap.Int("chars", len(text)))
	return Succeeded(text)
}
