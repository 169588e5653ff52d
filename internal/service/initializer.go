// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"log/slog"
	"os"
)

// Init initializes every service implementing Initializer, in order.
// On the first failure it shuts down the already-initialized services
// in reverse order and returns the failure.
func Init(logger *slog.Logger, services []Service) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	initialized := make([]Service, 0, len(services))

	for _, s := range services {
		init, ok := s.(Initializer)
		if !ok {
			logger.Debug("service needs no initialization", "service", s.Name())
			continue
		}

		logger.Info("Initializing service", "service", s.Name())
		if err := init.Init(); err != nil {
			shutdownAll(logger, initialized)
			return fmt.Errorf("failed to initialize service %s: %w", s.Name(), err)
		}
		initialized = append(initialized, s)
	}

	return nil
}

// shutdownAll rolls back initialized services, newest first.
func shutdownAll(logger *slog.Logger, services []Service) {
	logger.Info("Shutting down initialized services")
	for i := len(services) - 1; i >= 0; i-- {
		s := services[i]
		shut, ok := s.(Shutdowner)
		if !ok {
			continue
		}
		if err := shut.Shutdown(); err != nil {
			logger.Error("failed to shutdown service", "service", s.Name(), "error", err)
		}
	}
}
