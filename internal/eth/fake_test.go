package eth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcHandler func(params []json.RawMessage) (any, *rpcError)

// fakeNode is a minimal JSON-RPC server. Unknown methods answer -32601.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string][]rpcRequest
}

func newFakeNode(t *testing.T) (*fakeNode, *RPCProvider) {
	t.Helper()

	n := &fakeNode{handlers: map[string]rpcHandler{}, calls: map[string][]rpcRequest{}}
	srv := httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(srv.Close)

	c, err := rpc.DialContext(t.Context(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return n, New(c)
}

func (n *fakeNode) handle(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// result makes every call to method return v.
func (n *fakeNode) result(method string, v any) {
	n.handle(method, func([]json.RawMessage) (any, *rpcError) { return v, nil })
}

func (n *fakeNode) callsTo(method string) []rpcRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rpcRequest(nil), n.calls[method]...)
}

func (n *fakeNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method] = append(n.calls[req.Method], req)
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
	} else {
		result, rerr := h(req.Params)
		resp.Result, resp.Error = result, rerr
	}
	// null results must still be present on the wire
	w.Header().Set("Content-Type", "application/json")
	if resp.Error == nil && resp.Result == nil {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":null}`))
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}
