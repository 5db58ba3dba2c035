// Package reactor implements a single-threaded, edge-triggered readiness
// loop over raw TCP sockets, modeled on the mio style of epoll wrapper:
// one token per connection, one dispatch per ready frame, no per-connection
// goroutine. It talks to the kernel through golang.org/x/sys/unix directly
// rather than through net.Conn, since mixing Go's own netpoller with a
// hand-rolled epoll loop on the same file descriptor produces two readiness
// trackers fighting over one socket.
package reactor

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"go-bitcoin/internal/message"
)

// DefaultSlabCapacity bounds how many simultaneous peer connections a
// Reactor tracks before it starts refusing new accepts.
const DefaultSlabCapacity = 1024

// Dispatcher receives one fully-framed message at a time, already matched
// to the connection it arrived on.
type Dispatcher interface {
	OnAccept(token Token, remote unix.Sockaddr)
	OnMessage(token Token, header message.MessageHeader, payload []byte)
	OnDisconnect(token Token, err error)
}

// Reactor owns the epoll instance, the listening socket, and the slab of
// live connections. It is not safe for concurrent use; Run blocks the
// calling goroutine for the reactor's entire lifetime.
type Reactor struct {
	epfd     int
	listenFd int
	capacity int
	slab     *Slab
	log      *zap.Logger
	disp     Dispatcher
	closeCh  chan struct{}
}

// New creates a Reactor bound to addr (host:port), ready for Run. capacity
// of 0 uses DefaultSlabCapacity.
func New(addr string, port int, capacity int, disp Dispatcher, log *zap.Logger) (*Reactor, error) {
	if capacity <= 0 {
		capacity = DefaultSlabCapacity
	}

	listenFd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(listenFd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(listenFd)
		return nil, fmt.Errorf("setsockopt reuseaddr: %w", err)
	}

	sockAddr, err := resolveSockaddr(addr, port)
	if err != nil {
		unix.Close(listenFd)
		return nil, err
	}
	if err := unix.Bind(listenFd, sockAddr); err != nil {
		unix.Close(listenFd)
		return nil, fmt.Errorf("bind %s:%d: %w", addr, port, err)
	}
	if err := unix.Listen(listenFd, unix.SOMAXCONN); err != nil {
		unix.Close(listenFd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(listenFd, true); err != nil {
		unix.Close(listenFd)
		return nil, fmt.Errorf("set listener nonblocking: %w", err)
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(listenFd)
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	r := &Reactor{
		epfd:     epfd,
		listenFd: listenFd,
		capacity: capacity,
		slab:     NewSlab(capacity),
		log:      log,
		disp:     disp,
		closeCh:  make(chan struct{}),
	}

	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(serverToken),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, listenFd, &event); err != nil {
		unix.Close(listenFd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl add listener: %w", err)
	}

	return r, nil
}

// Stop breaks Run out of its poll loop at the next iteration.
func (r *Reactor) Stop() {
	close(r.closeCh)
}

// Run polls for readiness until Stop is called or epoll_wait returns a
// fatal error. Each ready event is handled inline: accepts enqueue a new
// connection, reads drain the socket and dispatch whatever complete
// frames result, writes flush the pending output queue.
func (r *Reactor) Run() error {
	events := make([]unix.EpollEvent, 256)
	for {
		select {
		case <-r.closeCh:
			return nil
		default:
		}

		n, err := unix.EpollWait(r.epfd, events, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			token := Token(ev.Fd)

			if token == serverToken {
				r.acceptLoop()
				continue
			}

			conn := r.slab.Get(token)
			if conn == nil {
				continue
			}

			if ev.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				r.disconnect(token, fmt.Errorf("socket error/hangup"))
				continue
			}
			if ev.Events&unix.EPOLLIN != 0 {
				r.handleReadable(token, conn)
			}
			if conn.State != StateClosed && ev.Events&unix.EPOLLOUT != 0 {
				r.handleWritable(token, conn)
			}
		}
	}
}

// acceptLoop drains every pending connection on the listening socket in
// one pass, so a single readiness event admits a whole arrival burst.
func (r *Reactor) acceptLoop() {
	for {
		if r.slab.Len() >= r.capacity {
			r.log.Warn("connection slab full, refusing accept")
			return
		}

		fd, sa, err := unix.Accept4(r.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			r.log.Error("accept failed", zap.Error(err))
			return
		}

		c := NewConnection(fd, sa, 0)
		token := r.slab.Insert(c)
		c.Token = token

		event := unix.EpollEvent{
			Events: unix.EPOLLIN | unix.EPOLLET | unix.EPOLLONESHOT,
			Fd:     int32(token),
		}
		if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			r.log.Error("epoll_ctl add connection failed", zap.Error(err))
			c.Close()
			r.slab.Remove(token)
			continue
		}

		r.disp.OnAccept(token, sa)
	}
}

func (r *Reactor) handleReadable(token Token, conn *Connection) {
	_, _, err := conn.ReadIntoBuffer()
	if err != nil {
		r.disconnect(token, err)
		return
	}

	for {
		header, payload, ok, err := conn.NextFrame()
		if err != nil {
			r.disconnect(token, err)
			return
		}
		if !ok {
			break
		}
		r.disp.OnMessage(token, header, payload)
	}

	r.rearm(token, conn)
}

func (r *Reactor) handleWritable(token Token, conn *Connection) {
	if err := conn.Flush(); err != nil {
		r.disconnect(token, err)
		return
	}
	r.rearm(token, conn)
}

// rearm re-registers interest for the connection's fd, since EPOLLONESHOT
// disarms it after every delivered event.
func (r *Reactor) rearm(token Token, conn *Connection) {
	events := uint32(unix.EPOLLIN | unix.EPOLLET | unix.EPOLLONESHOT)
	if conn.State == StateWriting {
		events |= unix.EPOLLOUT
	}

	ev := unix.EpollEvent{Events: events, Fd: int32(token)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, conn.Fd, &ev); err != nil {
		r.disconnect(token, err)
	}
}

func (r *Reactor) disconnect(token Token, cause error) {
	conn := r.slab.Get(token)
	if conn == nil {
		return
	}
	conn.Close()
	r.slab.Remove(token)
	r.disp.OnDisconnect(token, cause)
}

// Send enqueues frame for token and arms the connection for writability.
func (r *Reactor) Send(token Token, frame []byte) error {
	conn := r.slab.Get(token)
	if conn == nil {
		return fmt.Errorf("unknown token %s", token)
	}
	conn.Enqueue(frame)
	r.rearm(token, conn)
	return nil
}

// Shutdown closes the listening socket and every live connection.
func (r *Reactor) Shutdown() error {
	for _, token := range r.slab.Tokens() {
		if conn := r.slab.Get(token); conn != nil {
			conn.Close()
		}
	}
	unix.Close(r.epfd)
	return unix.Close(r.listenFd)
}
