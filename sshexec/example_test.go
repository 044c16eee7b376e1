package sshexec_test

import (
	"context"
	"fmt"

	. "github.com/monopole/sshexec/sshexec"
	"github.com/monopole/sshexec/transport/fake"
)

// An example using /bin/sh via the fake transport, which execs commands
// locally so this example runs without a real SSH server.
func Example_capture2() {
	sess, err := NewSession(fake.New(fake.OpenPolicy{}))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer sess.Close()

	out, status, err := sess.Capture2(context.Background(), nil, Options{}, "echo", "hello")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(string(out))
	fmt.Println("exit code:", mustExitCode(status))

	// Output:
	// hello
	// exit code: 0
}

func mustExitCode(s *Status) int {
	code, _ := s.ExitCode()
	return code
}
