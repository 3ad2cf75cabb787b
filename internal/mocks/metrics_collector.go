// Package mocks holds testify mocks for the domain interfaces.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"chiaotu/internal/domain"
)

// MetricsCollector is a mock implementation of domain.MetricsCollector.
type MetricsCollector struct {
	mock.Mock
}

var _ domain.MetricsCollector = (*MetricsCollector)(nil)

// NewMetricsCollector creates a mock and registers its expectations check
// with the test cleanup.
func NewMetricsCollector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MetricsCollector {
	m := &MetricsCollector{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MetricsCollector) RecordLineDecoded(protocol domain.ProtocolTag) {
	m.Called(protocol)
}

func (m *MetricsCollector) RecordLineDropped(protocol domain.ProtocolTag) {
	m.Called(protocol)
}

func (m *MetricsCollector) RecordFetch(source, status string, d time.Duration) {
	m.Called(source, status, d)
}

func (m *MetricsCollector) RecordSource(vendor string, proxies int) {
	m.Called(vendor, proxies)
}

func (m *MetricsCollector) RecordMerge(total, unique int) {
	m.Called(total, unique)
}

func (m *MetricsCollector) RecordGroup(name string, members int) {
	m.Called(name, members)
}

func (m *MetricsCollector) RecordWorkerStart(workerID string) {
	m.Called(workerID)
}

func (m *MetricsCollector) RecordWorkerStop(workerID string) {
	m.Called(workerID)
}
