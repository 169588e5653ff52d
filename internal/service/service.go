// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the lifecycle contracts long-running parts of
// the process opt into. A component implements only the stages it
// needs; Init and Run inspect the slice and act on what they find.
package service

import "context"

// Service is anything with a name. All lifecycle interfaces embed it.
type Service interface {
	Name() string
}

// Initializer is a service that must set up resources before Run.
type Initializer interface {
	Service
	Init() error
}

// Runner is a service that blocks until its context is cancelled or it
// fails. Run must be safe to call from its own goroutine.
type Runner interface {
	Service
	Run(ctx context.Context) error
}

// Shutdowner is a service that releases resources on termination.
type Shutdowner interface {
	Service
	Shutdown() error
}
