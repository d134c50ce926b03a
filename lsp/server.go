// Package lsp implements a Language Server Protocol server exposing
// method-chain inlay hints for Go files.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	chainsight "github.com/hari6963/chainsight"
	"github.com/hari6963/chainsight/analysis"
)

// Analyzer provides type-checked files for open documents.
type Analyzer interface {
	Analyze(ctx context.Context, path string, src []byte) (*analysis.AnalyzedFile, error)
}

// Server implements the LSP Server interface.
type Server struct {
	client   protocol.Client
	logger   *zap.Logger
	analyzer Analyzer

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document

	// Hint configuration, loaded from the workspace config file and
	// updatable through workspace/didChangeConfiguration.
	cfg  *chainsight.Config
	rule *chainsight.Rule

	// Server state
	initialized   bool
	shutdown      bool
	workspaceRoot string
}

// Document represents an open document in the server.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string

	// Analysis is the most recent completed analysis for this content.
	Analysis *analysis.AnalyzedFile

	// Batch is the hint set computed from Analysis. Rebuilt from
	// scratch by every pass; superseded passes never publish one.
	Batch chainsight.HintBatch

	// cancel aborts the in-flight background pass, if any.
	cancel context.CancelFunc
}

// NewServer creates a new LSP server.
func NewServer(client protocol.Client, logger *zap.Logger, analyzer Analyzer) *Server {
	return &Server{
		client:    client,
		logger:    logger,
		analyzer:  analyzer,
		documents: make(map[protocol.DocumentURI]*Document),
	}
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.Any("params", params))

	if params.RootURI != "" {
		s.workspaceRoot = URIToPath(params.RootURI)
	} else if params.RootPath != "" {
		s.workspaceRoot = params.RootPath
	}

	if s.workspaceRoot != "" {
		s.logger.Info("Workspace root", zap.String("root", s.workspaceRoot))
		s.loadConfig(s.workspaceRoot)
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Full document sync - client sends entire content on change
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			// protocol v0.12.0 predates the LSP 3.17 InlayHintProvider
			// capability field; clients that know about chainsight find
			// the provider here and call textDocument/inlayHint, which
			// is served through the custom-request path.
			Experimental: map[string]interface{}{
				"inlayHintProvider": true,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "chainsight-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// loadConfig reads the nearest workspace config and compiles its rule.
func (s *Server) loadConfig(dir string) {
	cfg, err := chainsight.LoadConfig(dir)
	if err != nil {
		if !errors.Is(err, chainsight.ErrConfigNotFound) {
			s.logger.Warn("Failed to load config", zap.Error(err))
		}

		return
	}

	rule, err := cfg.CompiledRule()
	if err != nil {
		s.logger.Warn("Invalid chain rule, using built-in gate", zap.Error(err))
	}

	s.mu.Lock()
	s.cfg = cfg
	s.rule = rule
	s.mu.Unlock()

	s.logger.Info("Loaded config",
		zap.Bool("enabled", cfg.HintsEnabled()),
		zap.String("rule", cfg.Rule))
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")
	s.initialized = true

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true

	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")
	// The main loop should handle exiting after this
	return nil
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(_ context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Content: params.TextDocument.Text,
	}

	s.documents[params.TextDocument.URI] = doc
	s.schedulePassLocked(doc)

	return nil
}

// DidChange handles textDocument/didChange notifications.
func (s *Server) DidChange(_ context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.logger.Debug("DidChange",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int32("version", params.TextDocument.Version))

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.logger.Warn("DidChange for unknown document", zap.String("uri", string(params.TextDocument.URI)))

		return nil
	}

	// Full sync - take the last content change
	if len(params.ContentChanges) > 0 {
		doc.Content = params.ContentChanges[len(params.ContentChanges)-1].Text
		doc.Version = params.TextDocument.Version
		s.schedulePassLocked(doc)
	}

	return nil
}

// DidClose handles textDocument/didClose notifications.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()

	if doc, ok := s.documents[params.TextDocument.URI]; ok && doc.cancel != nil {
		doc.cancel()
	}

	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	// Clear diagnostics for closed document
	if s.client != nil {
		err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
		if err != nil {
			s.logger.Error("Failed to clear diagnostics", zap.Error(err))
		}
	}

	return nil
}

// DidSave handles textDocument/didSave notifications.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Debug("DidSave", zap.String("uri", string(params.TextDocument.URI)))

	return nil
}

// configSettings is the shape of workspace/didChangeConfiguration settings
// this server understands.
type configSettings struct {
	Chainsight chainsight.Config `json:"chainsight"`
}

// DidChangeConfiguration handles workspace/didChangeConfiguration. Settings
// replace the workspace config file; every open document is re-analyzed so
// a flipped feature flag takes effect immediately.
func (s *Server) DidChangeConfiguration(_ context.Context, params *protocol.DidChangeConfigurationParams) error {
	raw, err := json.Marshal(params.Settings)
	if err != nil {
		return nil
	}

	var settings configSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn("Unrecognized configuration payload", zap.Error(err))

		return nil
	}

	rule, err := settings.Chainsight.CompiledRule()
	if err != nil {
		s.logger.Warn("Invalid chain rule, using built-in gate", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := settings.Chainsight
	s.cfg = &cfg
	s.rule = rule

	s.logger.Info("Configuration changed", zap.Bool("enabled", s.cfg.HintsEnabled()))

	for _, doc := range s.documents {
		s.schedulePassLocked(doc)
	}

	return nil
}

// schedulePassLocked starts a background hint pass for doc, superseding any
// pass still in flight for it. Caller holds s.mu.
func (s *Server) schedulePassLocked(doc *Document) {
	if doc.cancel != nil {
		doc.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	doc.cancel = cancel

	// Snapshot everything the pass needs; it must not touch shared state
	// until it republishes under the lock.
	uri := doc.URI
	version := doc.Version
	content := doc.Content
	enabled := s.cfg.HintsEnabled()
	rule := s.rule

	go s.runPass(ctx, uri, version, content, enabled, rule)
}

// runPass analyzes one document version and publishes the resulting batch.
// A cancelled pass publishes nothing: the previous hints stay visible until
// the superseding pass lands.
func (s *Server) runPass(ctx context.Context, uri protocol.DocumentURI, version int32, content string, enabled bool, rule *chainsight.Rule) {
	path := URIToPath(uri)

	analyzed, err := s.analyzer.Analyze(ctx, path, []byte(content))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("Analysis failed", zap.String("uri", string(uri)), zap.Error(err))
		}

		return
	}

	batch, err := analyzed.Hints(ctx, enabled, rule)
	if err != nil {
		// Cancellation mid-collection; the pass is a no-op.
		return
	}

	s.mu.Lock()

	doc, ok := s.documents[uri]
	if ok && doc.Version == version {
		doc.Analysis = analyzed
		doc.Batch = batch
	} else {
		ok = false
	}

	s.mu.Unlock()

	if !ok {
		s.logger.Debug("Discarding stale pass", zap.String("uri", string(uri)), zap.Int32("version", version))

		return
	}

	s.logger.Debug("Pass complete",
		zap.String("uri", string(uri)),
		zap.Int32("version", version),
		zap.Int("hints", len(batch)))

	s.publishDiagnostics(ctx, uri, version, analyzed)
}

// getDocument returns a document by URI (read-locked).
func (s *Server) getDocument(uri protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]

	return doc, ok
}
