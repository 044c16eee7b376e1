package sshexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRedirects(t *testing.T) {
	testCases := map[string]struct {
		cmdline   string
		redirects []Redirect
		expected  string
		wantErr   string
	}{
		"none": {
			cmdline:  "echo x",
			expected: "echo x",
		},
		"fd_dup": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: "err", Dest: 1}},
			expected:  "echo x 2>&1",
		},
		"path": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: "out", Dest: "/tmp/log"}},
			expected:  "echo x >'/tmp/log'",
		},
		"multiple_declaration_order": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: "out", Dest: "/tmp/log"}, {Key: "err", Dest: 1}},
			expected:  "echo x >'/tmp/log' 2>&1",
		},
		"declaration_order_is_not_sorted": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: "err", Dest: 1}, {Key: "out", Dest: "/tmp/log"}},
			expected:  "echo x 2>&1 >'/tmp/log'",
		},
		"unrecognized_key_used_verbatim": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: ">>", Dest: "/tmp/log"}},
			expected:  "echo x >>'/tmp/log'",
		},
		"bad_dest_type": {
			cmdline:   "echo x",
			redirects: []Redirect{{Key: "out", Dest: 3.14}},
			wantErr:   "destination must be int",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := buildRedirects(tc.cmdline, tc.redirects)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'hello'", shellQuote("hello"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestRedirectOperator(t *testing.T) {
	testCases := map[string]struct {
		key      string
		expected string
	}{
		"in":       {key: "in", expected: "<"},
		"out":      {key: "out", expected: ">"},
		"err":      {key: "err", expected: "2>"},
		"fd3":      {key: "3", expected: "3>"},
		"verbatim": {key: ">>", expected: ">>"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, redirectOperator(tc.key))
		})
	}
}
