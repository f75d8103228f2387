// SPDX-License-Identifier: MIT
package gitx_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/skaphos/branchkeeper/internal/gitx"
)

// MockRunner implements gitx.Runner for testing.
type MockRunner struct {
	// Responses maps "dir:args" keys to canned results.
	Responses map[string]MockResponse
	Calls     []string
}

type MockResponse struct {
	Output string
	Stderr string
	Err    error
}

func (m *MockRunner) Run(_ context.Context, dir string, args ...string) (gitx.Result, error) {
	key := dir + ":" + strings.Join(args, " ")
	m.Calls = append(m.Calls, key)
	resp, ok := m.Responses[key]
	if !ok {
		// Also try without dir for convenience
		resp, ok = m.Responses[":"+strings.Join(args, " ")]
	}
	if !ok {
		return gitx.Result{Args: args}, fmt.Errorf("unexpected call: dir=%q args=%v", dir, args)
	}
	res := gitx.Result{Args: args, Stdout: resp.Output, Stderr: resp.Stderr}
	if resp.Err != nil {
		return res, &gitx.CommandError{Dir: dir, Args: args, Stderr: resp.Stderr, Err: resp.Err}
	}
	return res, nil
}
