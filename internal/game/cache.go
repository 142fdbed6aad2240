package game

import (
	"slices"

	"chessboard/internal/board"
	"chessboard/internal/engine"
)

// LegalityCache holds the legal destinations of one origin square. Membership
// tests never reach the oracle.
type LegalityCache struct {
	origin board.Square
	dests  map[board.Square]struct{}
}

func NewLegalityCache() *LegalityCache {
	return &LegalityCache{origin: board.NoSquare}
}

// Refresh replaces the cache with the oracle's destinations for origin
func (c *LegalityCache) Refresh(oracle engine.Oracle, origin board.Square) []board.Square {
	dests := oracle.LegalDestinations(origin)
	c.origin = origin
	c.dests = make(map[board.Square]struct{}, len(dests))
	for _, d := range dests {
		c.dests[d] = struct{}{}
	}
	return dests
}

// Contains reports whether dest is legal from origin. False when the cache
// was filled for another origin.
func (c *LegalityCache) Contains(origin, dest board.Square) bool {
	if !origin.Valid() || origin != c.origin {
		return false
	}
	_, ok := c.dests[dest]
	return ok
}

func (c *LegalityCache) Invalidate() {
	c.origin = board.NoSquare
	c.dests = nil
}

func (c *LegalityCache) Origin() board.Square {
	return c.origin
}

// Destinations returns the cached set in square order
func (c *LegalityCache) Destinations() []board.Square {
	out := make([]board.Square, 0, len(c.dests))
	for d := range c.dests {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
