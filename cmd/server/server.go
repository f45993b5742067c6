package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aetherdb/aetherdb"
	"github.com/aetherdb/aetherdb/db"
)

// Server exposes one aetherdb instance over TCP, one statement per
// line. Connections authenticate with LOGIN or AUTH JWT; sessions are
// per-connection and the engine is bound to the connection's identity
// for the duration of each statement.
type Server struct {
	listener   net.Listener
	instance   *aetherdb.Instance
	authConfig *AuthConfig
	mu         sync.Mutex
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewServer(instance *aetherdb.Instance, authConfig *AuthConfig) *Server {
	return &Server{
		instance:   instance,
		authConfig: authConfig,
		done:       make(chan struct{}),
	}
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	log.Printf("SQL server listening on %s", addr)

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	log.Printf("Client connected: %s", conn.RemoteAddr())

	state := &ConnectionState{}
	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("Read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}

		switch {
		case strings.EqualFold(query, "quit"), strings.EqualFold(query, "exit"):
			log.Printf("Client disconnected: %s", conn.RemoteAddr())
			return
		default:
			response := s.dispatch(query, state)
			data, err := EncodeResponse(response)
			if err != nil {
				log.Printf("Failed to encode response: %v", err)
				continue
			}
			if _, err := conn.Write(data); err != nil {
				log.Printf("Write error to %s: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}
}

func (s *Server) dispatch(query string, state *ConnectionState) Response {
	upper := strings.ToUpper(query)
	switch {
	case strings.HasPrefix(upper, "LOGIN "):
		return s.handleLogin(query, state)
	case strings.HasPrefix(upper, "AUTH "):
		return s.handleAuth(query, state)
	default:
		return s.executeQuery(query, state)
	}
}

// executeQuery runs one statement as the connection's user. The server
// mutex serializes statements so each connection's identity is bound to
// the engine for exactly its own statement.
func (s *Server) executeQuery(query string, state *ConnectionState) Response {
	if !state.IsAuthenticated() {
		return errorResponse("", errors.New("not authenticated: send LOGIN or AUTH first"))
	}
	if !state.tokenExpiry.IsZero() && time.Now().After(state.tokenExpiry) {
		state.authenticated = false
		return errorResponse("", errors.New("token expired: authenticate again"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.instance.Engine.SetPrincipal(*state.identity)
	result, err := s.instance.Engine.Execute(query)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}

	switch r := result.(type) {
	case db.QueryResult:
		data, _ := json.Marshal(QueryResponse{
			Columns:     r.Columns,
			Data:        r.Data,
			RecordsRead: r.RecordsRead,
			TimeMs:      r.ExecutionTimeSec * 1000,
		})
		return Response{Success: true, Type: "query", Result: data}

	case db.CommitResult:
		data, _ := json.Marshal(CommitResponse{
			TablesCreated:  r.TablesCreated,
			TablesAltered:  r.TablesAltered,
			RecordsWritten: r.RecordsWritten,
			RecordsUpdated: r.RecordsUpdated,
			RecordsDeleted: r.RecordsDeleted,
			TimeMs:         r.ExecutionTimeSec * 1000,
		})
		return Response{Success: true, Type: "commit", Result: data}

	default:
		return Response{Success: true, Type: "unknown"}
	}
}
