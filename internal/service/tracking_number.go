package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	trackingDigitsMin   = 100000000000
	trackingDigitsRange = 900000000000
)

// TrackingNumberGenerator produces prefix + 12 random digits + suffix.
type TrackingNumberGenerator struct {
	prefix string
	suffix string
	source io.Reader
}

// NewTrackingNumberGenerator builds a generator backed by crypto/rand.
func NewTrackingNumberGenerator(prefix, suffix string) *TrackingNumberGenerator {
	return &TrackingNumberGenerator{prefix: prefix, suffix: suffix, source: rand.Reader}
}

// Next returns a fresh tracking number. Uniqueness is left to storage.
func (g *TrackingNumberGenerator) Next() (string, error) {
	n, err := rand.Int(g.source, big.NewInt(trackingDigitsRange))
	if err != nil {
		return "", fmt.Errorf("generate tracking number: %w", err)
	}
	return fmt.Sprintf("%s%d%s", g.prefix, n.Int64()+trackingDigitsMin, g.suffix), nil
}
