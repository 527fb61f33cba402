package sql

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
)

// Namer mints parameter names. Every name returned by one Namer is unique.
type Namer interface {
	Next() (string, error)
}

// Counter names parameters p1, p2, ... in allocation order.
// The zero value is ready to use; a Counter is scoped to one statement.
type Counter struct {
	n int
}

// Next implements Namer.
func (c *Counter) Next() (string, error) {
	c.n++
	return "p" + strconv.Itoa(c.n), nil
}

// Token generator defaults.
const (
	DefaultTokenLength = 20
	DefaultTokenMax    = 50
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TokenGenerator hands out at most Max distinct random tokens of Length
// letters. It is single use: once exhausted it keeps failing.
type TokenGenerator struct {
	mu     sync.Mutex
	length int
	max    int
	seen   map[string]struct{}
	intn   func(int) int
}

// NewTokenGenerator returns a generator of max distinct tokens of the given length.
// It fails with ErrConfig when max is larger than the number of distinct
// tokens of that length.
func NewTokenGenerator(length, max int) (*TokenGenerator, error) {
	return newTokenGenerator(length, max, rand.IntN)
}

func newTokenGenerator(length, max int, intn func(int) int) (*TokenGenerator, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: token length must be at least 1, got %d", ErrConfig, length)
	}
	if max < 1 {
		return nil, fmt.Errorf("%w: max generation must be at least 1, got %d", ErrConfig, max)
	}
	if c := tokenCapacity(length, max); c < max {
		return nil, fmt.Errorf("%w: max generation %d exceeds the %d tokens of length %d", ErrConfig, max, c, length)
	}
	return &TokenGenerator{
		length: length,
		max:    max,
		seen:   make(map[string]struct{}, min(max, 1024)),
		intn:   intn,
	}, nil
}

// tokenCapacity returns len(alphabet)^length, capped once it reaches limit.
func tokenCapacity(length, limit int) int {
	c := 1
	for i := 0; i < length && c < limit; i++ {
		if c > limit/len(tokenAlphabet) {
			return limit
		}
		c *= len(tokenAlphabet)
	}
	return c
}

// Next implements Namer.
func (g *TokenGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.seen) >= g.max {
		return "", fmt.Errorf("%w: all %d tokens were handed out", ErrTokensExhausted, g.max)
	}
	buf := make([]byte, g.length)
	for {
		for i := range buf {
			buf[i] = tokenAlphabet[g.intn(len(tokenAlphabet))]
		}
		tok := string(buf)
		if _, ok := g.seen[tok]; !ok {
			g.seen[tok] = struct{}{}
			return tok, nil
		}
	}
}

// Count returns how many tokens were handed out.
func (g *TokenGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Max returns the maximum number of tokens.
func (g *TokenGenerator) Max() int { return g.max }

// Length returns the length of each token.
func (g *TokenGenerator) Length() int { return g.length }
