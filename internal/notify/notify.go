// Package notify delivers user-facing alerts, gated on the stored
// notification permission.
package notify

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(value string) (Permission, error) {
	switch Permission(strings.ToLower(strings.TrimSpace(value))) {
	case "", PermissionDefault:
		return PermissionDefault, nil
	case PermissionGranted:
		return PermissionGranted, nil
	case PermissionDenied:
		return PermissionDenied, nil
	}
	return "", fmt.Errorf("invalid notification permission %q (use granted|denied|default)", value)
}

type Sender interface {
	Send(ctx context.Context, message string) error
}

type Logger interface {
	Printf(format string, v ...any)
}

// Gate forwards messages to Sender only while permission is granted.
// Delivery errors are logged and never surface to the caller.
type Gate struct {
	Permission Permission
	Sender     Sender
	Logger     Logger
	Timeout    time.Duration
}

func (g *Gate) Granted() bool {
	return g != nil && g.Permission == PermissionGranted && g.Sender != nil
}

func (g *Gate) Notify(message string) {
	if !g.Granted() {
		return
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := g.Sender.Send(ctx, message); err != nil && g.Logger != nil {
		g.Logger.Printf("WARN notify: delivery failed: %v", err)
	}
}

// WriterSender prints notifications as lines on W.
type WriterSender struct {
	W      io.Writer
	Prefix string
}

func (s WriterSender) Send(_ context.Context, message string) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "[platelog] "
	}
	if _, err := fmt.Fprintln(s.W, prefix+message); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

// CommandSender runs an external program with the message as its last
// argument, e.g. notify-send or terminal-notifier.
type CommandSender struct {
	Command string
	Args    []string
}

// ParseCommand splits a whitespace separated command line.
func ParseCommand(line string) (CommandSender, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandSender{}, false
	}
	return CommandSender{Command: fields[0], Args: fields[1:]}, true
}

func (s CommandSender) Send(ctx context.Context, message string) error {
	args := append(append([]string(nil), s.Args...), message)
	out, err := exec.CommandContext(ctx, s.Command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w: %s", s.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
