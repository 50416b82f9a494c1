// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package health provides health check reporting for the service
package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// StatusHealthy represents healthy status
	StatusHealthy = "healthy"
	// StatusUnhealthy represents unhealthy status
	StatusUnhealthy = "unhealthy"
	// DefaultTimeout is the default timeout for health checks
	DefaultTimeout = 5 * time.Second
)

// CheckResult represents the result of a single dependency check
type CheckResult struct {
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Response represents the complete health check response
type Response struct {
	Status       string                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Uptime       string                 `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Checker is a single named dependency check
type Checker func(ctx context.Context) error

// Manager runs registered dependency checks and builds the health response
type Manager struct {
	serviceName string
	version     string
	startTime   time.Time
	checkers    map[string]Checker
	timeout     time.Duration
	logger      *zap.Logger
}

// NewManager creates a new health check manager
func NewManager(serviceName, version string, logger *zap.Logger) *Manager {
	return &Manager{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		checkers:    make(map[string]Checker),
		timeout:     DefaultTimeout,
		logger:      logger,
	}
}

// AddChecker registers a dependency check under a name
func (m *Manager) AddChecker(name string, checker Checker) {
	m.checkers[name] = checker
}

// Check runs all registered checks and returns the aggregate response.
// Any unhealthy dependency makes the overall status unhealthy.
func (m *Manager) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	dependencies := make(map[string]CheckResult)
	overallStatus := StatusHealthy

	for name, checker := range m.checkers {
		start := time.Now()
		err := checker(ctx)
		latency := time.Since(start)

		result := CheckResult{
			Status:    StatusHealthy,
			LatencyMS: latency.Milliseconds(),
			Timestamp: time.Now(),
		}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()
			overallStatus = StatusUnhealthy
			m.logger.Warn("Health check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
		}

		dependencies[name] = result
	}

	return Response{
		Status:       overallStatus,
		Service:      m.serviceName,
		Version:      m.version,
		Uptime:       time.Since(m.startTime).Round(time.Second).String(),
		Dependencies: dependencies,
		Timestamp:    time.Now(),
	}
}

// DatabaseChecker wraps a storage ping as a dependency check.
func DatabaseChecker(name string, ping func(ctx context.Context) error) Checker {
	return func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}
}
