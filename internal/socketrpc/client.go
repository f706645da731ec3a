package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
)

// Client calls the gateway views over a Unix domain socket using JSON-RPC 2.0.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(30 * time.Second))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// Entries returns raw entries of the named backend in [min, max).
func (c *Client) Entries(backend, min, max string) ([]model.LogEntry, error) {
	var result []model.LogEntry
	err := c.call("Entries", EntriesParams{Backend: backend, Min: min, Max: max}, &result)
	return result, err
}

// EntriesByLevel returns RethinkDB entries of one severity.
func (c *Client) EntriesByLevel(min, max, logtype string) ([]model.LogEntry, error) {
	var result []model.LogEntry
	err := c.call("EntriesByLevel", EntriesByLevelParams{Min: min, Max: max, LogType: logtype}, &result)
	return result, err
}

// LevelStats returns per-day severity counts keyed by "D/M/Y".
func (c *Client) LevelStats(min, max string) (map[string][]reshape.LevelCount, error) {
	var result map[string][]reshape.LevelCount
	err := c.call("LevelStats", WindowParams{Min: min, Max: max}, &result)
	return result, err
}

// TimeStats returns the latency histogram keyed by bucket label.
func (c *Client) TimeStats(min, max string) (map[string]int64, error) {
	var result map[string]int64
	err := c.call("TimeStats", WindowParams{Min: min, Max: max}, &result)
	return result, err
}

// WorstCalls returns the current worst-latency snapshot.
func (c *Client) WorstCalls() ([]model.LogEntry, error) {
	var result []model.LogEntry
	err := c.call("WorstCalls", map[string]interface{}{}, &result)
	return result, err
}
