package symexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RPCEngine adapts a symbolic execution backend running as a separate
// process (angr, or any service speaking the same wire protocol) over a
// minimal JSON-RPC 2.0 HTTP transport. The backend owns the actual solver
// state; this client only ever holds the opaque session ids it hands back,
// stashed in State.Backend.
type RPCEngine struct {
	url    string
	client *http.Client
}

// NewRPCEngine creates an Engine that delegates every operation to the
// symbolic execution service listening at url.
func NewRPCEngine(url string, timeout time.Duration) *RPCEngine {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RPCEngine{url: url, client: &http.Client{Timeout: timeout}}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *RPCEngine) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("symexec: marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("symexec: create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("symexec: %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("symexec: read %s response: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("symexec: unmarshal %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("symexec: %s rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("symexec: unmarshal %s result: %w", method, err)
	}
	return nil
}

// rpcSession is the opaque backend payload an RPCEngine stashes in
// State.Backend: just the id the remote service uses to look its own
// solver state back up.
type rpcSession struct {
	id string
}

type stateWire struct {
	ID   string `json:"id"`
	Addr int64  `json:"addr"`
}

func (e *RPCEngine) fromWire(w stateWire) *State {
	return &State{Addr: w.Addr, Backend: rpcSession{id: w.ID}}
}

func (e *RPCEngine) sessionID(s *State) (string, error) {
	sess, ok := s.Backend.(rpcSession)
	if !ok {
		return "", fmt.Errorf("symexec: state was not produced by RPCEngine")
	}
	return sess.id, nil
}

// LoadEntry asks the backend to load binary and return its entry state.
func (e *RPCEngine) LoadEntry(binary string) (*State, error) {
	var wire stateWire
	if err := e.call(context.Background(), "load_entry", map[string]string{"binary": binary}, &wire); err != nil {
		return nil, err
	}
	return e.fromWire(wire), nil
}

// Step asks the backend to single-step s and report every feasible
// successor.
func (e *RPCEngine) Step(s *State) ([]*State, error) {
	id, err := e.sessionID(s)
	if err != nil {
		return nil, err
	}
	var out struct {
		Successors []stateWire `json:"successors"`
	}
	if err := e.call(context.Background(), "step", map[string]string{"id": id}, &out); err != nil {
		return nil, err
	}
	successors := make([]*State, len(out.Successors))
	for i, w := range out.Successors {
		successors[i] = e.fromWire(w)
	}
	return successors, nil
}

// HasConstraints asks the backend whether s's path condition constrains
// anything beyond an unbounded symbolic stdin stream.
func (e *RPCEngine) HasConstraints(s *State) bool {
	id, err := e.sessionID(s)
	if err != nil {
		return false
	}
	var out struct {
		HasConstraints bool `json:"has_constraints"`
	}
	if err := e.call(context.Background(), "has_constraints", map[string]string{"id": id}, &out); err != nil {
		return false
	}
	return out.HasConstraints
}

// Iterate returns a lazy stream of concrete stdin assignments satisfying
// s's path condition, each element fetched with one iterate_next RPC.
func (e *RPCEngine) Iterate(ctx context.Context, s *State) Iterator {
	id, err := e.sessionID(s)
	if err != nil {
		return &rpcIterator{err: err}
	}
	return &rpcIterator{engine: e, id: id}
}

type rpcIterator struct {
	engine *RPCEngine
	id     string
	err    error
}

func (it *rpcIterator) Next(ctx context.Context) (Sample, bool) {
	if it.err != nil {
		return Sample{}, false
	}
	var out struct {
		Value  uint64 `json:"value"`
		Bottom bool   `json:"bottom"`
		OK     bool   `json:"ok"`
	}
	if err := it.engine.call(ctx, "iterate_next", map[string]string{"id": it.id}, &out); err != nil {
		return Sample{}, false
	}
	if !out.OK {
		return Sample{}, false
	}
	return Sample{Value: out.Value, Bottom: out.Bottom}, true
}
