package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/soyeahso/mcp-discord/internal/logging"
	"github.com/soyeahso/mcp-discord/internal/version"
)

// Server reads line-delimited JSON-RPC requests from in and writes exactly
// one response per request to out. stdout is reserved for this stream; all
// logging goes elsewhere.
type Server struct {
	in         io.Reader
	out        io.Writer
	dispatcher *Dispatcher
	log        *logging.Logger

	// onInitialized fires once when the client sends
	// notifications/initialized, i.e. when the transport is up.
	onInitialized func()
	initOnce      sync.Once

	writeMu sync.Mutex
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithIO overrides stdin/stdout. Used by tests.
func WithIO(in io.Reader, out io.Writer) ServerOption {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithOnInitialized registers a hook fired once after the client signals
// readiness.
func WithOnInitialized(f func()) ServerOption {
	return func(s *Server) { s.onInitialized = f }
}

// NewServer builds a stdio MCP server around the dispatcher.
func NewServer(d *Dispatcher, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		in:         os.Stdin,
		out:        os.Stdout,
		dispatcher: d,
		log:        log.Sub("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes requests until EOF on the input stream or context
// cancellation. Returns nil on clean EOF.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s.log.Info().Msg("listening for requests on stdin")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		s.handleLine(ctx, line)
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read stdin: %w", err)
	}
	s.log.Info().Msg("input stream closed, shutting down")
	return nil
}

func (s *Server) handleLine(ctx context.Context, line string) {
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.log.Warn().Err(err).Msg("unparseable request line")
		s.sendError(nil, codeParseError, "Parse error", err.Error())
		return
	}

	s.log.Debug().Str("method", req.Method).Msg("handling request")

	switch req.Method {
	case "initialize":
		s.sendResponse(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    Capabilities{Tools: map[string]interface{}{}},
			ServerInfo:      ServerInfo{Name: "mcp-discord", Version: version.Version},
		})

	case "notifications/initialized":
		// Transport is up; fire the deferred-connect hook exactly once.
		s.initOnce.Do(func() {
			if s.onInitialized != nil {
				s.onInitialized()
			}
		})

	case "ping":
		s.sendResponse(req.ID, map[string]interface{}{})

	case "tools/list":
		s.sendResponse(req.ID, ListToolsResult{Tools: s.dispatcher.Tools()})

	case "tools/call":
		var params CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
			return
		}
		result, rpcErr := s.dispatcher.CallTool(ctx, params.Name, params.Arguments)
		if rpcErr != nil {
			s.sendError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		s.sendResponse(req.ID, result)

	default:
		if req.ID == nil {
			// Unknown notification; nothing to answer.
			s.log.Debug().Str("method", req.Method).Msg("ignoring notification")
			return
		}
		s.sendError(req.ID, codeMethodNotFound, "Method not found",
			fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) sendResponse(id interface{}, result interface{}) {
	s.write(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id interface{}, code int, message string, data interface{}) {
	s.write(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) write(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal response")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}
