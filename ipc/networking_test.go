package ipc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/mandelview/programs"
)

func newLinks(t *testing.T) (ctx context.Context, cancel context.CancelFunc, render, config *Link, quits chan error) {
	t.Helper()

	client, listener := NewPipeListener()
	server, err := listener.Accept()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	t.Cleanup(cancel)

	quits = make(chan error, 4)
	quit := func(err error) { quits <- err }
	return ctx, cancel, NewLink(ctx, client, quit), NewLink(ctx, server, quit), quits
}

func receive(t *testing.T, msgs <-chan any) any {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestLinkRoundTrip(t *testing.T) {
	_, _, render, config, quits := newLinks(t)

	msgs := make(chan any, 4)
	go config.Receive(func(msg any) { msgs <- msg })

	u := programs.Uniforms{Pos: mgl64.Vec2{-0.75, 0.1}, Zoom: 0.001, IterLimit: 750}
	render.Send(&u)
	render.Send(&ProgramSelection{Name: "plain"})
	render.Send(ResetView)

	if got, ok := receive(t, msgs).(*programs.Uniforms); !ok || *got != u {
		t.Errorf("received %#v, want %+v", got, u)
	}
	if got, ok := receive(t, msgs).(*ProgramSelection); !ok || got.Name != "plain" {
		t.Errorf("received %#v, want plain selection", got)
	}
	if got, ok := receive(t, msgs).(Command); !ok || got != ResetView {
		t.Errorf("received %#v, want ResetView", got)
	}

	select {
	case err := <-quits:
		t.Errorf("link quit with %v", err)
	default:
	}
}

func TestLinkClosesQuietlyOnCancel(t *testing.T) {
	_, cancel, _, config, quits := newLinks(t)

	done := make(chan struct{})
	go func() {
		config.Receive(func(any) {})
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after cancel")
	}

	select {
	case err := <-quits:
		t.Errorf("link quit with %v", err)
	default:
	}
}

func TestPipeListener(t *testing.T) {
	_, listener := NewPipeListener()

	if _, err := listener.Accept(); err != nil {
		t.Fatalf("first Accept() error = %v", err)
	}
	if listener.Addr().Network() != "pipe" {
		t.Errorf("Addr().Network() = %q", listener.Addr().Network())
	}

	errs := make(chan error)
	go func() {
		_, err := listener.Accept()
		errs <- err
	}()

	if err := listener.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-errs; !errors.Is(err, net.ErrClosed) {
		t.Errorf("second Accept() error = %v, want net.ErrClosed", err)
	}
	if err := listener.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
