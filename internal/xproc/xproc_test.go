package xproc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	out, err := Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo hello"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("unexpected stdout: %q", out)
	}
}

func TestRunNonZeroExitIsToolFailure(t *testing.T) {
	_, err := Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsToolFailure(err) {
		t.Fatalf("expected tool failure, got %v", err)
	}
	if IsTimeout(err) {
		t.Fatalf("exit should not report as timeout")
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "sleep 10"}, Timeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("process was not killed promptly")
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Cmd{Name: "sh", Args: []string{"-c", "sleep 10"}})
	if err == nil || !IsTimeout(err) {
		t.Fatalf("expected cancellation surfaced as timeout-style failure, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}
