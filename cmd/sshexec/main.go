// Command sshexec is a smoke-test harness for package sshexec: dial a
// real SSH host, then either run a remote command and print its output
// (exec) or copy a local file to the remote host over SFTP (cp), wiring
// golang.org/x/crypto/ssh, github.com/pkg/sftp and github.com/sirupsen/logrus
// together the way a CLI built from this module actually would.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/monopole/sshexec/internal/xlog"
	"github.com/monopole/sshexec/sshexec"
	"github.com/monopole/sshexec/transport/sshtransport"
)

var (
	app = kingpin.New("sshexec", "Run commands or copy files over a multiplexed SSH connection.")

	host     = app.Flag("host", "host:port to dial").Required().String()
	user     = app.Flag("user", "SSH username").Required().String()
	keyFile  = app.Flag("identity", "path to a PEM-encoded private key").String()
	password = app.Flag("password", "SSH password (used if --identity is not set)").String()
	verbose  = app.Flag("verbose", "enable verbose library logging").Bool()
	timeout  = app.Flag("timeout", "dial timeout").Default("10s").Duration()

	execCmd  = app.Command("exec", "Run a remote command and print its output.")
	execArgs = execCmd.Arg("argv", "command and arguments").Required().Strings()
	usePTY   = execCmd.Flag("pty", "request a PTY").Bool()

	cpCmd  = app.Command("cp", "Copy a local file to the remote host over SFTP.")
	cpSrc  = cpCmd.Arg("source", "local path").Required().String()
	cpDest = cpCmd.Arg("destination", "remote path").Required().String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *verbose {
		xlog.VerboseLoggingEnable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := clientConfig()
	if err != nil {
		app.Fatalf("%v", err)
	}

	conn, err := sshtransport.Dial(ctx, sshtransport.Config{
		Addr:           *host,
		ClientConfig:   cfg,
		ConnectTimeout: *timeout,
	})
	if err != nil {
		app.Fatalf("dial %s: %v", *host, err)
	}

	switch cmd {
	case execCmd.FullCommand():
		err = runExec(ctx, conn)
	case cpCmd.FullCommand():
		err = runCp(conn.Client())
	}
	if err != nil {
		app.Fatalf("%v", err)
	}
}

func clientConfig() (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            *user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         *timeout,
	}
	if *keyFile != "" {
		key, err := os.ReadFile(*keyFile)
		if err != nil {
			return nil, fmt.Errorf("reading identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing identity file: %w", err)
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
		return cfg, nil
	}
	cfg.Auth = append(cfg.Auth, ssh.Password(*password))
	return cfg, nil
}

func runExec(ctx context.Context, conn *sshtransport.Transport) error {
	sess, err := sshexec.NewSession(conn)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.Close()

	logger := xlog.NewLogrus(logrus.StandardLogger(), logrus.Fields{"host": *host})

	opts := sshexec.Options{Logger: logger, WorkingHost: *host}
	if *usePTY {
		opts.PTY = true
	}

	argv := *execArgs
	out, status, err := sess.Capture2e(ctx, nil, opts, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("running %v: %w", argv, err)
	}
	os.Stdout.Write(out)
	if ok, known := status.Success(); known && !ok {
		os.Exit(1)
	}
	return nil
}

func runCp(client *ssh.Client) error {
	sc, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("starting sftp client: %w", err)
	}
	defer sc.Close()

	src, err := os.Open(*cpSrc)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *cpSrc, err)
	}
	defer src.Close()

	dst, err := sc.Create(*cpDest)
	if err != nil {
		return fmt.Errorf("creating remote %s: %w", *cpDest, err)
	}
	defer dst.Close()

	start := time.Now()
	n, err := dst.ReadFrom(src)
	if err != nil {
		return fmt.Errorf("copying to %s: %w", *cpDest, err)
	}
	fmt.Fprintf(os.Stderr, "copied %d bytes to %s:%s in %s\n", n, *host, *cpDest, time.Since(start))
	return nil
}
