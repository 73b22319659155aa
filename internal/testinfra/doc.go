// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// so sinks are exercised against the real service rather than a mock.
//
// # Redis Container
//
// The RedisContainer provides a disposable Redis instance for the Redis sink:
//
//	func TestRedisSink(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//
//	    s, err := sink.NewRedisSink(ctx, sink.RedisOptions{Addr: rc.Addr})
//	    // ...
//	}
//
// # Build Tags
//
// All helpers are behind the integration build tag:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
package testinfra
