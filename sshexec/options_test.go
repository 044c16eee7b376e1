package sshexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/monopole/sshexec/engine"
)

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{}.validate())

	assert.NoError(t, Options{PTY: true}.validate())
	assert.NoError(t, Options{PTY: PTYModes{Term: "xterm"}}.validate())

	err := Options{PTY: "nope"}.validate()
	assert.ErrorContains(t, err, "PTY option must be bool or PTYModes")

	assert.NoError(t, Options{Redirects: []Redirect{{Key: "out", Dest: "/tmp/log"}}}.validate())

	err = Options{Redirects: []Redirect{{Key: "", Dest: "/tmp/log"}}}.validate()
	assert.ErrorContains(t, err, "empty redirect key")
}

func TestRetrySpec_Resolve(t *testing.T) {
	retries, delay := RetrySpec{}.resolve()
	assert.Equal(t, engine.DefaultRetries, retries)
	assert.Equal(t, engine.DefaultRetryDelay, delay)

	retries, delay = Retries(3).resolve()
	assert.Equal(t, 3, retries)
	assert.Equal(t, engine.DefaultRetryDelay, delay)

	retries, delay = RetriesWithDelay(7, 2*time.Second).resolve()
	assert.Equal(t, 7, retries)
	assert.Equal(t, 2*time.Second, delay)
}
