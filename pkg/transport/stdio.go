// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/jsonrpc2"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/mcp"
)

// Stdio runs a backend as a child process and exchanges newline-delimited
// JSON-RPC messages over its standard input and output. Standard error is
// drained to the log, never mixed into the protocol.
type Stdio struct {
	command string
	args    []string
	env     map[string]string

	cmd *exec.Cmd

	writeMu sync.Mutex
	stdin   io.WriteCloser

	inbound chan jsonrpc2.Message
	readErr error

	closeOnce sync.Once
	closed    chan struct{}
}

// NewStdio creates a stdio transport for the given command line. The child
// process starts on Open.
func NewStdio(command string, args []string, env map[string]string) *Stdio {
	return &Stdio{
		command: command,
		args:    args,
		env:     env,
		inbound: make(chan jsonrpc2.Message, 32),
		closed:  make(chan struct{}),
	}
}

// Open spawns the child process and starts the read loop.
func (t *Stdio) Open(_ context.Context) error {
	cmd := exec.Command(t.command, t.args...)
	cmd.Env = childEnv(t.env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: command not found: %s", ErrSpawn, t.command)
		}
		return fmt.Errorf("%w: starting %s: %w", ErrSpawn, t.command, err)
	}

	t.cmd = cmd
	t.stdin = stdin

	go t.drainStderr(stderr)
	go t.readLoop(stdout)

	return nil
}

// ReadMessage blocks for the next message from the child's stdout.
func (t *Stdio) ReadMessage(ctx context.Context) (jsonrpc2.Message, error) {
	select {
	case <-t.closed:
		return nil, ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closed:
		return nil, ErrClosed
	case msg, ok := <-t.inbound:
		if !ok {
			if t.readErr != nil {
				return nil, t.readErr
			}
			return nil, ErrClosed
		}
		return msg, nil
	}
}

// WriteMessage writes one newline-terminated message to the child's stdin.
func (t *Stdio) WriteMessage(_ context.Context, msg jsonrpc2.Message) error {
	data, err := jsonrpc2.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	data = append(data, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	if t.stdin == nil {
		return ErrClosed
	}

	if _, err := t.stdin.Write(data); err != nil {
		return fmt.Errorf("%w: writing to process: %w", ErrTransport, err)
	}

	return nil
}

// Close asks the child to exit by closing its stdin and kills it after the
// grace period. Idempotent; waits for the process to be reaped.
func (t *Stdio) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)

		if t.cmd == nil || t.cmd.Process == nil {
			return
		}

		t.writeMu.Lock()
		if t.stdin != nil {
			_ = t.stdin.Close()
		}
		t.writeMu.Unlock()

		done := make(chan error, 1)
		go func() { done <- t.cmd.Wait() }()

		select {
		case <-done:
		case <-time.After(mcp.ChildGracePeriod):
			_ = t.cmd.Process.Kill()
			<-done
		}
	})

	return nil
}

// readLoop accumulates stdout lines and delivers decoded messages.
func (t *Stdio) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 4096), maxMessageSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		msg, err := jsonrpc2.DecodeMessage(line)
		if err != nil {
			logger.Debugf("Dropping undecodable stdio frame: %v", err)
			continue
		}

		select {
		case t.inbound <- msg:
		case <-t.closed:
			return
		}
	}

	select {
	case <-t.closed:
		// Shutdown closed the pipes; that is not a transport failure.
	default:
		if err := scanner.Err(); err != nil {
			t.readErr = fmt.Errorf("%w: reading from process: %w", ErrTransport, err)
		} else {
			t.readErr = fmt.Errorf("%w: process closed its output", ErrTransport)
		}
	}
	close(t.inbound)
}

// drainStderr keeps the child's diagnostics out of the protocol stream.
func (t *Stdio) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 4096), maxMessageSize)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Debugf("%s stderr: %s", t.command, line)
		}
	}
}

// childEnv builds the child environment: a minimal base preserving PATH and
// HOME, overlaid with the configured variables.
func childEnv(extra map[string]string) []string {
	env := []string{"PATH=" + os.Getenv("PATH")}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	return env
}
