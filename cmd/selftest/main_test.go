package main

import (
	"testing"

	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"
)

func TestSelfTest(t *testing.T) {
	assert.NoError(t, selfTest(logging.Discard(), 256, 2))
}

func TestWindowAroundClamps(t *testing.T) {
	r := windowAround(uint128.From64(3), 10)
	assert.True(t, r.Start.IsZero())
	assert.True(t, r.End.Equals64(14))

	r = windowAround(uint128.Max.Sub64(2), 10)
	assert.True(t, r.End.Equals(uint128.Max))
	assert.True(t, r.Contains(uint128.Max.Sub64(2)))

	r = windowAround(uint128.From64(1000), 10)
	assert.True(t, r.Len().Equals64(21))
}
