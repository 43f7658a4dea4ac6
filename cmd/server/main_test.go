package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"milestone-tracker/internal/config"
)

func TestLimitersDoNotShareBuckets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	httpRL, grpcRL := newLimiters(ctx, config.RateLimitConfig{RPS: 0.001, Burst: 2})

	for i := 0; i < 5; i++ {
		grpcRL.Allow("10.0.0.1")
	}
	assert.False(t, grpcRL.Allow("10.0.0.1"))
	assert.True(t, httpRL.Allow("10.0.0.1"), "grpc traffic must not drain the login allowance")
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Driver: "bogus"}, nil)
	assert.ErrorContains(t, err, "unknown store driver")
}
