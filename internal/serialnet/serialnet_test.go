package serialnet

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/dataunit"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

type fakeRouter struct {
	units chan *dataunit.Unit
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{units: make(chan *dataunit.Unit, 16)}
}

func (f *fakeRouter) Process(u *dataunit.Unit) {
	f.units <- u
}

// fakePort is an in-memory Port: reads come from a fixed script of chunks,
// writes are recorded. Once the script is exhausted, Read blocks until
// Close is called, then returns io.EOF.
type fakePort struct {
	mu     sync.Mutex
	chunks [][]byte
	closed chan struct{}

	written [][]byte
}

func newFakePort(chunks [][]byte) *fakePort {
	return &fakePort{chunks: chunks, closed: make(chan struct{})}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if len(p.chunks) > 0 {
		chunk := p.chunks[0]
		p.chunks = p.chunks[1:]
		p.mu.Unlock()
		n := copy(buf, chunk)
		return n, nil
	}
	p.mu.Unlock()
	<-p.closed
	return 0, io.EOF
}

func (p *fakePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), buf...)
	p.written = append(p.written, cp)
	return len(buf), nil
}

func (p *fakePort) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

func newTestEndpoint(t *testing.T, port *fakePort) (*Endpoint, *fakeRouter, chan string) {
	t.Helper()
	router := newFakeRouter()
	stopped := make(chan string, 1)
	e := New(testLogger(t), "/dev/fake", 9600, router, func(reason string) { stopped <- reason })
	e.open = func(string, int) (Port, error) { return port, nil }
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return e, router, stopped
}

func TestReadLoopForwardsBytesToRouter(t *testing.T) {
	port := newFakePort([][]byte{[]byte("hello")})
	e, router, _ := newTestEndpoint(t, port)
	t.Cleanup(e.Stop)

	select {
	case u := <-router.units:
		if u.Kind() != dataunit.Serial {
			t.Fatalf("Kind() = %v, want Serial", u.Kind())
		}
		if data := u.PopData(); !bytes.Equal(data, []byte("hello")) {
			t.Errorf("data = %q, want %q", data, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("no unit reached the router")
	}
}

func TestWriteGoesToPort(t *testing.T) {
	port := newFakePort(nil)
	e, _, _ := newTestEndpoint(t, port)
	t.Cleanup(e.Stop)

	e.Write([]byte("out"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		port.mu.Lock()
		n := len(port.written)
		port.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	port.mu.Lock()
	defer port.mu.Unlock()
	if len(port.written) != 1 || !bytes.Equal(port.written[0], []byte("out")) {
		t.Errorf("written = %v, want [\"out\"]", port.written)
	}
}

func TestReadErrorTriggersOnStop(t *testing.T) {
	port := newFakePort(nil)
	e, _, stopped := newTestEndpoint(t, port)
	t.Cleanup(e.Stop)

	port.Close()

	select {
	case reason := <-stopped:
		if reason == "" {
			t.Error("onStop reason is empty")
		}
	case <-time.After(time.Second):
		t.Fatal("onStop was not called after the port closed")
	}
}
