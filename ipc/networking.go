// Package ipc carries messages between the render and config windows.
package ipc

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/stewi1014/mandelview/logging"
	"github.com/stewi1014/mandelview/programs"
)

// ProgramSelection names the program both windows should show.
type ProgramSelection struct {
	Name string
}

// Command is a request without a payload.
type Command int

const (
	ResetView Command = iota + 1
)

func init() {
	gob.Register(&programs.Uniforms{})
	gob.Register(&ProgramSelection{})
	gob.Register(Command(0))
}

// NewPipeListener returns the two ends of an in-process connection, the
// second wrapped as a listener that hands out its end once.
func NewPipeListener() (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	return clientPipe, &pipeListener{
		pipe: listenerPipe,
		done: make(chan struct{}),
	}
}

type pipeListener struct {
	mu   sync.Mutex
	pipe net.Conn
	done chan struct{}
	once sync.Once
}

func (p *pipeListener) Accept() (net.Conn, error) {
	p.mu.Lock()
	pipe := p.pipe
	p.pipe = nil
	p.mu.Unlock()

	if pipe != nil {
		return pipe, nil
	}
	<-p.done
	return nil, net.ErrClosed
}

func (p *pipeListener) Close() error {
	p.once.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pipe != nil {
		return p.pipe.Close()
	}
	return nil
}

func (p *pipeListener) Addr() net.Addr {
	return pipeAddr{}
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

// Link sends and receives gob messages between the render and config windows.
type Link struct {
	ctx  context.Context
	quit func(error)
	conn net.Conn
	send chan any
}

// NewLink starts sending on conn. quit is called with the cause when the
// connection fails.
func NewLink(ctx context.Context, conn net.Conn, quit func(error)) *Link {
	l := &Link{
		ctx:  ctx,
		quit: quit,
		conn: conn,
		send: make(chan any, 16),
	}
	go l.handleSend()
	return l
}

// Send queues msg for the other window. It does not block on the peer.
func (l *Link) Send(msg any) {
	select {
	case l.send <- msg:
	case <-l.ctx.Done():
	default:
		logging.Logger().Warn("window link congested, dropping message", "type", fmt.Sprintf("%T", msg))
	}
}

func (l *Link) handleSend() {
	enc := gob.NewEncoder(l.conn)
	defer l.conn.Close()

	for {
		select {
		case msg := <-l.send:
			err := enc.Encode(&msg)
			if err != nil {
				l.quit(fmt.Errorf("sending %T: %w", msg, err))
				return
			}
		case <-l.ctx.Done():
			return
		}
	}
}

// Receive decodes messages and passes them to handle until the connection
// closes. It blocks; run it on its own goroutine.
func (l *Link) Receive(handle func(msg any)) {
	dec := gob.NewDecoder(l.conn)

	for {
		var v any
		err := dec.Decode(&v)
		if err != nil {
			if l.ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				l.quit(fmt.Errorf("receiving: %w", err))
			}
			l.conn.Close()
			return
		}

		handle(v)
	}
}
