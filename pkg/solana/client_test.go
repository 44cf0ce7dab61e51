package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
	"golang.org/x/time/rate"

	"github.com/code-payments/multisig-client/pkg/retry"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero},
		},
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: "random"},
		},
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed},
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &one},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized},
			confirmed: true,
			finalized: true,
		},
		{
			s:         SignatureStatus{Slot: 10},
			confirmed: true,
			finalized: true,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())
	}
}

func TestCommitmentFromString(t *testing.T) {
	for _, expected := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		actual, err := CommitmentFromString(expected.Commitment)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	_, err := CommitmentFromString("max")
	assert.Error(t, err)
}

type rpcRequest struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcReply struct {
	result interface{}
	err    *jsonrpc.RPCError
	status int
}

// rpcStub is a JSON-RPC node answering from per-method handlers.
type rpcStub struct {
	mu       sync.Mutex
	handlers map[string]func(params json.RawMessage) rpcReply
	calls    map[string]int
}

func newTestClient(t *testing.T) (*client, *rpcStub) {
	stub := &rpcStub{
		handlers: make(map[string]func(json.RawMessage) rpcReply),
		calls:    make(map[string]int),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		stub.mu.Lock()
		stub.calls[req.Method]++
		handler, ok := stub.handlers[req.Method]
		stub.mu.Unlock()

		if !ok {
			t.Errorf("unexpected method: %s", req.Method)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		reply := handler(req.Params)
		if reply.status != 0 {
			w.WriteHeader(reply.status)
			return
		}

		body := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if reply.err != nil {
			body["error"] = reply.err
		} else {
			body["result"] = reply.result
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(server.Close)

	return newClient(
		jsonrpc.NewClient(server.URL),
		retry.NewRetrier(retry.RetriableRPCCodes(rateLimitedCode, rpcNodeUnhealthyCode, 500), retry.Limit(3)),
	), stub
}

func (s *rpcStub) handle(method string, handler func(params json.RawMessage) rpcReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
}

func (s *rpcStub) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	c, stub := newTestClient(t)

	var expected Blockhash
	expected[0] = 1
	expected[31] = 2

	stub.handle("getLatestBlockhash", func(json.RawMessage) rpcReply {
		return rpcReply{result: map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": map[string]interface{}{
				"blockhash":            expected.ToBase58(),
				"lastValidBlockHeight": 100,
			},
		}}
	})

	actual, err := c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	// Served from the cache
	actual, err = c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.Equal(t, 1, stub.count("getLatestBlockhash"))
}

func noAccount(json.RawMessage) rpcReply {
	return rpcReply{result: map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   nil,
	}}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	c, stub := newTestClient(t)

	var attempts int
	stub.handle("getAccountInfo", func(params json.RawMessage) rpcReply {
		attempts++
		if attempts < 3 {
			return rpcReply{err: &jsonrpc.RPCError{Code: rpcNodeUnhealthyCode, Message: "Node is unhealthy"}}
		}
		return noAccount(params)
	})

	_, err := c.GetAccountInfo(public(generateKeys(t, 1)[0]), CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
	assert.Equal(t, 3, stub.count("getAccountInfo"))

	stub.handle("getSignatureStatuses", func(json.RawMessage) rpcReply {
		return rpcReply{err: &jsonrpc.RPCError{Code: -32602, Message: "Invalid params"}}
	})

	_, err = c.GetSignatureStatuses([]Signature{{1}})
	assert.Error(t, err)
	assert.Equal(t, 1, stub.count("getSignatureStatuses"))
}

func TestClient_RateLimited(t *testing.T) {
	c, stub := newTestClient(t)
	c.limiter = rate.NewLimiter(rate.Limit(20), 1)

	stub.handle("getAccountInfo", noAccount)

	account := public(generateKeys(t, 1)[0])
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetAccountInfo(account, CommitmentProcessed)
		require.Equal(t, ErrNoAccountInfo, err)
	}

	// The first request consumes the burst, the rest wait ~50ms each.
	assert.True(t, time.Since(start) >= 90*time.Millisecond)
	assert.Equal(t, 3, stub.count("getAccountInfo"))
}

func TestClient_SendTransaction(t *testing.T) {
	c, stub := newTestClient(t)

	keys := generateKeys(t, 2)
	tx, err := NewVersionedTransaction(
		public(keys[0]),
		NewInstruction(public(keys[1]), []byte{1}, NewAccountMeta(public(keys[0]), true)),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(keys[0]))

	maxRetries := uint(2)
	stub.handle("sendTransaction", func(params json.RawMessage) rpcReply {
		var args []json.RawMessage
		require.NoError(t, json.Unmarshal(params, &args))
		require.Len(t, args, 2)

		var encoded string
		require.NoError(t, json.Unmarshal(args[0], &encoded))
		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		assert.Equal(t, tx.Marshal(), raw)

		var config map[string]interface{}
		require.NoError(t, json.Unmarshal(args[1], &config))
		assert.Equal(t, "base64", config["encoding"])
		assert.Equal(t, false, config["skipPreflight"])
		assert.Equal(t, "confirmed", config["preflightCommitment"])
		assert.EqualValues(t, 2, config["maxRetries"])

		return rpcReply{result: base58.Encode(tx.Signature())}
	})

	sig, err := c.SendTransaction(tx, SendOptions{
		PreflightCommitment: CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures[0], sig)
}

func TestClient_SendTransactionRejected(t *testing.T) {
	c, stub := newTestClient(t)

	keys := generateKeys(t, 2)
	tx, err := NewTransaction(
		public(keys[0]),
		NewInstruction(public(keys[1]), nil),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(keys[0]))

	stub.handle("sendTransaction", func(json.RawMessage) rpcReply {
		return rpcReply{err: &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1770",
			Data: map[string]interface{}{
				"err":  map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6000}}},
				"logs": []string{"Program log: AnchorError occurred."},
			},
		}}
	})

	_, err = c.SendTransaction(tx, SendOptions{})
	require.Error(t, err)

	var sendErr *SendTransactionError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, -32002, sendErr.Code)
	assert.Equal(t, []string{"Program log: AnchorError occurred."}, sendErr.Logs)
	require.NotNil(t, sendErr.Err)
	assert.Equal(t, CustomError(6000), *sendErr.Err.CustomError())

	// Node unhealthy failures are never resent.
	stub.handle("sendTransaction", func(json.RawMessage) rpcReply {
		return rpcReply{err: &jsonrpc.RPCError{Code: rpcNodeUnhealthyCode, Message: "Node is unhealthy"}}
	})
	_, err = c.SendTransaction(tx, SendOptions{SkipPreflight: true})
	require.Error(t, err)
	assert.Equal(t, 2, stub.count("sendTransaction"))

	stub.handle("sendTransaction", func(json.RawMessage) rpcReply {
		return rpcReply{status: http.StatusBadGateway}
	})
	_, err = c.SendTransaction(tx, SendOptions{})
	require.Error(t, err)
	assert.False(t, errors.As(err, &sendErr))
	assert.Equal(t, 3, stub.count("sendTransaction"))
}

func TestClient_GetAccountInfo(t *testing.T) {
	c, stub := newTestClient(t)

	account := public(generateKeys(t, 1)[0])
	owner := public(generateKeys(t, 1)[0])
	data := []byte("account data")

	stub.handle("getAccountInfo", func(params json.RawMessage) rpcReply {
		var args []json.RawMessage
		require.NoError(t, json.Unmarshal(params, &args))

		var requested string
		require.NoError(t, json.Unmarshal(args[0], &requested))
		if requested != base58.Encode(account) {
			return rpcReply{result: map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": nil}}
		}

		return rpcReply{result: map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"lamports":   1000,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
				"rentEpoch":  0,
			},
		}}
	})

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, data, info.Data)
	assert.EqualValues(t, 1000, info.Lamports)
	assert.False(t, info.Executable)

	_, err = c.GetAccountInfo(make(ed25519.PublicKey, ed25519.PublicKeySize), CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetSignatureStatus(t *testing.T) {
	c, stub := newTestClient(t)

	var sig Signature
	sig[0] = 1

	one := 1
	stub.handle("getSignatureStatuses", func(json.RawMessage) rpcReply {
		if stub.count("getSignatureStatuses") < 2 {
			return rpcReply{result: map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{nil},
			}}
		}

		return rpcReply{result: map[string]interface{}{
			"context": map[string]interface{}{"slot": 2},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               2,
					"confirmations":      one,
					"confirmationStatus": "confirmed",
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6005}}},
				},
			},
		}}
	})

	status, err := c.GetSignatureStatus(sig, CommitmentConfirmed)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.EqualValues(t, 2, status.Slot)
	require.NotNil(t, status.ErrorResult)
	assert.Equal(t, CustomError(6005), *status.ErrorResult.CustomError())
	assert.Equal(t, 2, stub.count("getSignatureStatuses"))
}
