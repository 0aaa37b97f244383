package irc

import (
	"errors"
	"testing"

	"github.com/vovakirdan/ircserv/internal/core"
)

func TestOutboxLimit(t *testing.T) {
	o := newOutbox(10)
	if err := o.Push("12345"); err != nil {
		t.Fatal(err)
	}
	if err := o.Push("123456"); !errors.Is(err, core.ErrSendQueueFull) {
		t.Fatalf("expected ErrSendQueueFull, got %v", err)
	}
	if err := o.Push("12345"); err != nil {
		t.Fatalf("exact fit refused: %v", err)
	}
	data, closed := o.Take()
	if string(data) != "1234512345" || closed {
		t.Fatalf("unexpected take: %q closed=%v", data, closed)
	}
	if o.Len() != 0 {
		t.Fatal("take did not empty the queue")
	}
}

func TestOutboxRequeueKeepsOrder(t *testing.T) {
	o := newOutbox(0)
	_ = o.Push("first\r\n")
	data, _ := o.Take()
	_ = o.Push("second\r\n")
	o.Requeue(data[3:])

	got, _ := o.Take()
	if string(got) != "st\r\nsecond\r\n" {
		t.Fatalf("unexpected order: %q", got)
	}
}

func TestOutboxClose(t *testing.T) {
	o := newOutbox(0)
	_ = o.Push("bye\r\n")
	o.Close()
	o.Close()

	if err := o.Push("late\r\n"); !errors.Is(err, errConnClosed) {
		t.Fatalf("expected errConnClosed, got %v", err)
	}
	select {
	case <-o.Ready():
	default:
		t.Fatal("close should wake the writer")
	}
	data, closed := o.Take()
	if string(data) != "bye\r\n" || !closed {
		t.Fatalf("queued bytes lost on close: %q closed=%v", data, closed)
	}
}
