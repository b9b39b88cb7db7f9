package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func newTestSpinner(ctx context.Context, msg string) (*Spinner, *bytes.Buffer) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, msg)
	s.w = &buf
	return s, &buf
}

func TestSpinnerDrawsMessage(t *testing.T) {
	s, buf := newTestSpinner(context.Background(), "Rendering...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering...") {
		t.Errorf("output %q does not contain the message", buf.String())
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s, _ := newTestSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s, _ := newTestSpinner(ctx, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := newTestSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	s, buf := newTestSpinner(context.Background(), "never started")
	s.Stop()
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.mu.Lock()
	out := buf.String()
	s.mu.Unlock()
	if strings.Contains(out, "never started") {
		t.Error("a stopped spinner should not draw")
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s, buf := newTestSpinner(context.Background(), "Fetching...")
	s.Start()
	s.SetMessage("Compositing...")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Compositing...") {
		t.Errorf("output %q does not contain the new message", buf.String())
	}
}
