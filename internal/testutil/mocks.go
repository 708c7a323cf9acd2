package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/compass-oss/compass/internal/provider"
)

// MockGenerator implements provider.Generator for testing.
type MockGenerator struct {
	mu         sync.Mutex
	Responses  []string // queued responses, consumed in order
	Calls      []*provider.GenerateRequest
	ShouldFail bool
	FailErr    error
	Delay      time.Duration
	idx        int
}

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.ShouldFail {
		if m.FailErr != nil {
			return "", m.FailErr
		}
		return "", fmt.Errorf("mock generator error")
	}

	if m.idx >= len(m.Responses) {
		return "default mock response", nil
	}

	resp := m.Responses[m.idx]
	m.idx++
	return resp, nil
}

// CallCount returns how many times Generate was invoked.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
