package wireguard

import (
	"log/slog"
	"sync"
)

// mockCall records a single invocation against mockController, keyed by
// method name so tests can assert both call order and call count without
// a separate bool per method.
type mockCall struct {
	Method string
	Args   []interface{}
}

// mockController is the WGController test double used across this
// package's tests. Each method's error
// return is independently configurable via errs before the call is made.
type mockController struct {
	mu    sync.Mutex
	calls []mockCall
	errs  map[string]error
}

func newMockController() *mockController {
	return &mockController{errs: make(map[string]error)}
}

// failNext arranges for the named method's next (and all subsequent)
// calls to return err.
func (m *mockController) failNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
}

func (m *mockController) record(method string, args ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: method, Args: args})
	return m.errs[method]
}

func (m *mockController) CreateInterface(name string, privateKey []byte, listenPort int) error {
	return m.record("CreateInterface", name, privateKey, listenPort)
}

func (m *mockController) DeleteInterface(name string) error {
	return m.record("DeleteInterface", name)
}

func (m *mockController) ConfigureAddress(name string, address string) error {
	return m.record("ConfigureAddress", name, address)
}

func (m *mockController) SetInterfaceUp(name string) error {
	return m.record("SetInterfaceUp", name)
}

func (m *mockController) SetMTU(name string, mtu int) error {
	return m.record("SetMTU", name, mtu)
}

func (m *mockController) AddPeer(iface string, cfg PeerConfig) error {
	return m.record("AddPeer", iface, cfg)
}

func (m *mockController) RemovePeer(iface string, publicKey []byte) error {
	return m.record("RemovePeer", iface, publicKey)
}

// callsFor returns all recorded calls for the given method name, in the
// order they were made.
func (m *mockController) callsFor(method string) []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []mockCall
	for _, c := range m.calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}
