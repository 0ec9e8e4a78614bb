// Package shortcode draws short alphanumeric identifiers and assigns them
// against a store whose uniqueness constraint has the final say.
package shortcode

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultLength      = 6
	DefaultMaxAttempts = 10
	MaxLength          = 16
)

var (
	// ErrCollision is returned by a SaveFunc when the store rejected the code
	// because another row already holds it.
	ErrCollision = errors.New("short code already taken")
	// ErrExhausted means every attempt collided.
	ErrExhausted = errors.New("short code generation exhausted")
)

// ExistsFunc reports whether a code is already assigned.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// SaveFunc persists a code. It must return an error wrapping ErrCollision
// when the store's uniqueness constraint rejects the write.
type SaveFunc func(ctx context.Context, code string) error

type Generator struct {
	length      int
	maxAttempts int
	intN        func(n int) int
}

// New returns a generator; non-positive arguments fall back to the defaults.
func New(length, maxAttempts int) *Generator {
	if length <= 0 || length > MaxLength {
		length = DefaultLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		length:      length,
		maxAttempts: maxAttempts,
		intN:        rand.IntN,
	}
}

// WithSource replaces the random source, used by tests to force collisions.
func (g *Generator) WithSource(intN func(n int) int) *Generator {
	g.intN = intN
	return g
}

func (g *Generator) Length() int { return g.length }

// Code returns a single candidate drawn uniformly from Alphabet.
func (g *Generator) Code() string {
	var sb strings.Builder
	sb.Grow(g.length)
	k := len(Alphabet)
	for i := 0; i < g.length; i++ {
		sb.WriteByte(Alphabet[g.intN(k)])
	}
	return sb.String()
}

// Assign draws candidates until save accepts one. The exists pre-check only
// saves a round trip; a concurrent writer can still win between the check and
// the save, in which case save reports ErrCollision and a new code is drawn.
func (g *Generator) Assign(ctx context.Context, exists ExistsFunc, save SaveFunc) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := g.Code()

		if exists != nil {
			taken, err := exists(ctx, code)
			if err != nil {
				return "", fmt.Errorf("check short code: %w", err)
			}
			if taken {
				continue
			}
		}

		err := save(ctx, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, ErrCollision) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, g.maxAttempts)
}

// Valid reports whether s only uses Alphabet symbols and fits MaxLength.
// Length is not pinned so codes issued under an older length setting stay valid.
func Valid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
