package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes the gateway views over a Unix domain socket.
// Requests and responses are newline-delimited JSON objects.
//
//   Method            Params                                   Result
//   ──────────────    ───────────────────────────────────────   ──────────────────────────
//   Entries           {Backend: string, Min: string, Max: string}   []LogEntry
//   EntriesByLevel    {Min: string, Max: string, LogType: string}   []LogEntry
//   LevelStats        {Min: string, Max: string}               {"D/M/Y": [{level, count}]}
//   TimeStats         {Min: string, Max: string}               {"0 - 10": n, ..., " > 100": n}
//   WorstCalls        (none)                                   []LogEntry
//
// Backend is "rethinkdb" or "cratedb". Min and Max are ISO 8601 strings and
// follow the same presence rules as the HTTP query string.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params (including invalid dates and log types)
//   -32603  Internal error (marshal failure)
//   -32000  Application error (backend failure, unknown severity)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeApplication    = -32000
)

// WindowParams carries an optional or required time window.
type WindowParams struct {
	Min string
	Max string
}

// EntriesParams selects a backend and window.
type EntriesParams struct {
	Backend string
	Min     string
	Max     string
}

// EntriesByLevelParams selects a severity and optional window.
type EntriesByLevelParams struct {
	Min     string
	Max     string
	LogType string
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/logway/logway.sock, falling back to
// ~/.local/state/logway/logway.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "logway", "logway.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/logway.sock"
	}
	return filepath.Join(home, ".local", "state", "logway", "logway.sock")
}
