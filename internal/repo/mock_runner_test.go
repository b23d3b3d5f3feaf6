package repo_test

import (
	"context"
	"fmt"
	"strings"
)

// MockRunner implements gitx.Runner for testing.
type MockRunner struct {
	// Responses maps "dir:args" keys to (output, error) pairs.
	Responses map[string]MockResponse
	// Calls records every key seen, in order.
	Calls []string
}

type MockResponse struct {
	Output string
	Err    error
}

func (m *MockRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	key := dir + ":" + strings.Join(args, " ")
	m.Calls = append(m.Calls, key)
	if resp, ok := m.Responses[key]; ok {
		return resp.Output, resp.Err
	}
	return "", fmt.Errorf("unexpected call: dir=%q args=%v", dir, args)
}
