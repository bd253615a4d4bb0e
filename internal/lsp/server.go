// Package lsp exposes the lens engine as a language server over JSON-RPC.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/toyz/railslens/internal/config"
	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/lens"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/utils"
)

// ServerName is reported to clients in the initialize result
const ServerName = "railslens"

// Commands lists the navigation commands the server executes
var Commands = []string{
	models.OpenFileCommand,
	models.OpenFileAtLineCommand,
	models.OpenURLCommand,
}

// ConfigLoader loads the configuration of a workspace root
type ConfigLoader func(root string) (config.Config, error)

// Server is a language server providing code lenses for Rails projects
type Server struct {
	engine      *lens.Engine
	diagnostics *utils.DiagnosticSystem
	version     string
	loadConfig  ConfigLoader

	mu           sync.Mutex
	conn         *jsonrpc2.Conn
	ctx          context.Context
	documents    map[protocol.DocumentURI]models.Document
	capabilities protocol.ClientCapabilities
	shutdown     bool
	exit         chan struct{}
	exitOnce     sync.Once
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithConfigLoader reconfigures the engine from the first workspace root the
// client announces in initialize
func WithConfigLoader(load ConfigLoader) ServerOption {
	return func(s *Server) { s.loadConfig = load }
}

// NewServer creates a language server backed by engine
func NewServer(engine *lens.Engine, diagnostics *utils.DiagnosticSystem, version string, opts ...ServerOption) *Server {
	s := &Server{
		engine:      engine,
		diagnostics: diagnostics,
		version:     version,
		documents:   make(map[protocol.DocumentURI]models.Document),
		exit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve speaks the protocol over rwc until the client sends exit or disconnects.
// It returns an error when the connection ends without a prior shutdown request.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))

	s.mu.Lock()
	s.conn = conn
	s.ctx = ctx
	s.mu.Unlock()

	s.engine.SetNotifier(lens.NotifierFunc(s.showWarning))
	defer s.engine.SetNotifier(nil)

	select {
	case <-ctx.Done():
	case <-s.exit:
	case <-conn.DisconnectNotify():
	}
	_ = conn.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shutdown {
		return errors.New(errors.ProtocolErrorCode, "connection closed before shutdown")
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	s.diagnostics.Debug("lsp <- %s", req.Method)

	switch req.Method {
	case protocol.MethodInitialize:
		var params protocol.InitializeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(params), nil

	case protocol.MethodInitialized:
		go s.activate()
		return nil, nil

	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.setDocument(params.TextDocument.URI, params.TextDocument.Text)
		return nil, nil

	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if n := len(params.ContentChanges); n > 0 {
			s.setDocument(params.TextDocument.URI, params.ContentChanges[n-1].Text)
		}
		return nil, nil

	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.mu.Lock()
		delete(s.documents, params.TextDocument.URI)
		s.mu.Unlock()
		return nil, nil

	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.didSave(ctx, params)
		return nil, nil

	case protocol.MethodTextDocumentCodeLens:
		var params protocol.CodeLensParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.codeLens(ctx, params.TextDocument.URI)

	case protocol.MethodWorkspaceExecuteCommand:
		var params protocol.ExecuteCommandParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return nil, s.executeCommand(params)

	case protocol.MethodShutdown:
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return nil, nil

	case protocol.MethodExit:
		s.exitOnce.Do(func() { close(s.exit) })
		return nil, nil

	case "$/cancelRequest", "$/setTrace", protocol.MethodWorkspaceDidChangeConfiguration:
		return nil, nil
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("method not supported: %s", req.Method),
	}
}

func (s *Server) initialize(params protocol.InitializeParams) protocol.InitializeResult {
	s.mu.Lock()
	s.capabilities = params.Capabilities
	s.mu.Unlock()

	uris := make([]protocol.DocumentURI, 0, len(params.WorkspaceFolders)+1)
	for _, folder := range params.WorkspaceFolders {
		uris = append(uris, protocol.DocumentURI(folder.URI))
	}
	if len(uris) == 0 && params.RootURI != "" {
		uris = append(uris, params.RootURI)
	}

	var roots []string
	for _, u := range uris {
		path, err := uriPath(u)
		if err != nil {
			s.diagnostics.Warn("Ignoring workspace folder %s: %v", u, err)
			continue
		}
		roots = append(roots, path)
	}
	if len(uris) == 0 && params.RootPath != "" {
		roots = append(roots, params.RootPath)
	}
	for _, root := range roots {
		s.engine.AddWorkspace(root)
	}

	if s.loadConfig != nil && len(roots) > 0 {
		s.reconfigure(roots[0])
	}

	s.diagnostics.Verbose("Initialized with workspaces %v", s.engine.Workspaces())

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync:       protocol.TextDocumentSyncKindFull,
			CodeLensProvider:       &protocol.CodeLensOptions{},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{Commands: Commands},
		},
		ServerInfo: &protocol.ServerInfo{Name: ServerName, Version: s.version},
	}
}

// reconfigure applies the settings of root, including its env file
func (s *Server) reconfigure(root string) {
	cfg, err := s.loadConfig(root)
	if err != nil {
		s.diagnostics.Warn("Keeping default settings, could not load configuration of %s: %v", root, err)
		return
	}
	if err := s.engine.Reconfigure(cfg); err != nil {
		s.diagnostics.Warn("Could not apply configuration of %s: %v", root, err)
		return
	}
	s.diagnostics.Verbose("Loaded configuration of %s, providers %v", root, s.engine.Providers())
}

// activate builds missing route listings off the request loop, then asks the
// client to refresh its lenses
func (s *Server) activate() {
	s.engine.Activate(s.context())
	s.refreshLenses()
}

func (s *Server) didSave(ctx context.Context, params protocol.DidSaveTextDocumentParams) {
	path, err := uriPath(params.TextDocument.URI)
	if err != nil {
		return
	}
	if params.Text != "" {
		s.setDocument(params.TextDocument.URI, params.Text)
	}
	if s.engine.OnSave(ctx, path) {
		go s.refreshLenses()
	}
}

func (s *Server) codeLens(ctx context.Context, u protocol.DocumentURI) ([]codeLens, error) {
	doc, err := s.document(u)
	if err != nil {
		s.diagnostics.Debug("No lenses for %s: %v", u, err)
		return []codeLens{}, nil
	}

	found := s.engine.Scan(ctx, doc)
	result := make([]codeLens, 0, len(found))
	for _, l := range found {
		result = append(result, toCodeLens(l))
	}
	return result, nil
}

func toCodeLens(l models.Lens) codeLens {
	position := protocol.Position{Line: uint32(l.Line)}
	command := &lensCommand{
		Command: protocol.Command{Title: l.Title},
		Tooltip: l.Tooltip,
	}
	if l.Navigable() {
		command.Command.Command = l.Command.Name
		command.Arguments = l.Command.Arguments()
	}
	return codeLens{
		Range:   protocol.Range{Start: position, End: position},
		Command: command,
	}
}

func (s *Server) executeCommand(params protocol.ExecuteCommandParams) error {
	show, err := showDocumentFor(params)
	if err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	// A call made from inside the handler would wait on its own read loop
	go func() {
		var result protocol.ShowDocumentResult
		if err := s.call(methodShowDocument, show, &result); err != nil {
			s.diagnostics.Warn("window/showDocument %s failed: %v", show.URI, err)
			return
		}
		if !result.Success {
			s.diagnostics.Verbose("Client declined to show %s", show.URI)
		}
	}()
	return nil
}

// showDocumentFor maps a navigation command to the document the client should show
func showDocumentFor(params protocol.ExecuteCommandParams) (protocol.ShowDocumentParams, error) {
	args := params.Arguments
	switch params.Command {
	case models.OpenFileCommand:
		path, ok := stringArg(args, 0)
		if !ok {
			return protocol.ShowDocumentParams{}, fmt.Errorf("%s expects a file path", params.Command)
		}
		return protocol.ShowDocumentParams{URI: protocol.URI(fileURI(path)), TakeFocus: true}, nil

	case models.OpenFileAtLineCommand:
		path, ok := stringArg(args, 0)
		line, lineOK := positionArg(args, 1)
		if !ok || !lineOK {
			return protocol.ShowDocumentParams{}, fmt.Errorf("%s expects a file path and a line", params.Command)
		}
		character, _ := positionArg(args, 2)
		position := protocol.Position{Line: line, Character: character}
		return protocol.ShowDocumentParams{
			URI:       protocol.URI(fileURI(path)),
			TakeFocus: true,
			Selection: &protocol.Range{Start: position, End: position},
		}, nil

	case models.OpenURLCommand:
		target, ok := stringArg(args, 0)
		if !ok {
			return protocol.ShowDocumentParams{}, fmt.Errorf("%s expects a URL", params.Command)
		}
		return protocol.ShowDocumentParams{URI: protocol.URI(target), External: true}, nil
	}
	return protocol.ShowDocumentParams{}, fmt.Errorf("unknown command %q", params.Command)
}

func stringArg(args []interface{}, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	v, ok := args[i].(string)
	return v, ok && v != ""
}

// positionArg reads a zero-based line or character. JSON numbers arrive as float64.
func positionArg(args []interface{}, i int) (uint32, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float64:
		if v >= 0 {
			return uint32(v), true
		}
	case int:
		if v >= 0 {
			return uint32(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil && n >= 0 {
			return uint32(n), true
		}
	}
	return 0, false
}

func (s *Server) showWarning(message string) {
	params := protocol.ShowMessageParams{Type: protocol.MessageTypeWarning, Message: message}
	if err := s.notify(protocol.MethodWindowShowMessage, params); err != nil {
		s.diagnostics.Debug("window/showMessage failed: %v", err)
	}
}

func (s *Server) refreshLenses() {
	s.mu.Lock()
	workspace := s.capabilities.Workspace
	s.mu.Unlock()
	if workspace == nil || workspace.CodeLens == nil || !workspace.CodeLens.RefreshSupport {
		return
	}
	var ignored json.RawMessage
	if err := s.call(methodCodeLensRefresh, nil, &ignored); err != nil {
		s.diagnostics.Debug("workspace/codeLens/refresh failed: %v", err)
	}
}

func (s *Server) setDocument(u protocol.DocumentURI, text string) {
	path, err := uriPath(u)
	if err != nil {
		s.diagnostics.Debug("Ignoring %s: %v", u, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[u] = models.Document{Path: path, Text: text}
}

// document returns the open buffer for u, falling back to the file on disk
func (s *Server) document(u protocol.DocumentURI) (models.Document, error) {
	s.mu.Lock()
	doc, ok := s.documents[u]
	s.mu.Unlock()
	if ok {
		return doc, nil
	}

	path, err := uriPath(u)
	if err != nil {
		return models.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, errors.WrapFileSystemError("read", path, err)
	}
	return models.Document{Path: path, Text: string(data)}, nil
}

func (s *Server) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Server) connection() *jsonrpc2.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Server) notify(method string, params interface{}) error {
	conn := s.connection()
	if conn == nil {
		return errors.New(errors.ProtocolErrorCode, "not connected")
	}
	return conn.Notify(s.context(), method, params)
}

func (s *Server) call(method string, params, result interface{}) error {
	conn := s.connection()
	if conn == nil {
		return errors.New(errors.ProtocolErrorCode, "not connected")
	}
	return conn.Call(s.context(), method, params, result)
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: req.Method + ": missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: errors.WrapProtocolError(req.Method, err).Error(),
		}
	}
	return nil
}
