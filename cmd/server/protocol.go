// Package main provides a TCP SQL server for aetherdb.
package main

import (
	"encoding/json"
)

// Response is the server's reply to one line from the client.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "query", "commit" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse carries tabular query results.
type QueryResponse struct {
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// CommitResponse summarizes a mutating statement.
type CommitResponse struct {
	TablesCreated  int     `json:"tables_created,omitempty"`
	TablesAltered  int     `json:"tables_altered,omitempty"`
	RecordsWritten int     `json:"records_written,omitempty"`
	RecordsUpdated int     `json:"records_updated,omitempty"`
	RecordsDeleted int     `json:"records_deleted,omitempty"`
	TimeMs         float64 `json:"time_ms"`
}

// AuthResponse reports a successful LOGIN or AUTH.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Token         string `json:"token,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a trailing newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func errorResponse(kind string, err error) Response {
	return Response{Success: false, Type: kind, Error: err.Error()}
}
