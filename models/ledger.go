package models

import "encoding/json"

// RPCRequest is a JSON-RPC 2.0 request to the ledger execution node.
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// BurnResult is the outcome of a ledger burn call.
type BurnResult struct {
	Success bool   `json:"success"`
	TxRef   string `json:"tx_ref,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LedgerVersionResponse is the ledger node's reported API version.
type LedgerVersionResponse struct {
	Version string `json:"version"`
}
