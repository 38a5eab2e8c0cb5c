// Package lsp adapts the variable index, scanners, and color resolver to
// the Language Server Protocol over a glsp stdio transport.
package lsp

import (
	"os"
	"sync"

	"cssvars.dev/cvls/internal/color"
	"cssvars.dev/cvls/internal/config"
	"cssvars.dev/cvls/internal/documents"
	"cssvars.dev/cvls/internal/dom"
	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/internal/scanner"
	"cssvars.dev/cvls/internal/uriutil"
	"cssvars.dev/cvls/internal/vars"
	"cssvars.dev/cvls/internal/workspace"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const serverName = "css-variables-language-server"

// Server is the CSS variables language server.
type Server struct {
	cfg       config.Config
	documents *documents.Manager
	index     *vars.Index
	resolver  *color.Resolver

	// trees holds the structural model of each open markup document, for
	// scoped-selector winner narrowing.
	treesMu sync.RWMutex
	trees   map[string]*dom.Tree

	rootPath string
	scanner  *workspace.Scanner
	watcher  *workspace.Watcher

	glspServer *server.Server
	context    *glsp.Context
}

// NewServer creates a server with an empty index.
func NewServer(cfg config.Config) *Server {
	s := &Server{
		cfg:       cfg,
		documents: documents.NewManager(),
		index:     vars.NewIndex(),
		trees:     make(map[string]*dom.Tree),
	}
	s.resolver = color.NewResolver(s.index)

	handler := protocol.Handler{
		Initialize:                    s.handleInitialize,
		Initialized:                   s.handleInitialized,
		Shutdown:                      s.handleShutdown,
		SetTrace:                      s.handleSetTrace,
		TextDocumentDidOpen:           s.handleDidOpen,
		TextDocumentDidChange:         s.handleDidChange,
		TextDocumentDidClose:          s.handleDidClose,
		TextDocumentHover:             s.handleHover,
		TextDocumentCompletion:        s.handleCompletion,
		TextDocumentDefinition:        s.handleDefinition,
		TextDocumentReferences:        s.handleReferences,
		TextDocumentRename:            s.handleRename,
		TextDocumentDocumentSymbol:    s.handleDocumentSymbol,
		WorkspaceSymbol:               s.handleWorkspaceSymbol,
		TextDocumentColor:             s.handleDocumentColor,
		TextDocumentColorPresentation: s.handleColorPresentation,
	}

	s.glspServer = server.NewServer(&handler, serverName, false)
	return s
}

// RunStdio starts the server on the stdio transport.
func (s *Server) RunStdio() error {
	return s.glspServer.RunStdio()
}

// Index returns the server's variable index.
func (s *Server) Index() *vars.Index {
	return s.index
}

func (s *Server) handleInitialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	clientName := "unknown"
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	log.Info("initializing for client %s", clientName)

	s.rootPath = rootPathFrom(params)

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    &syncKind,
		},
		HoverProvider: true,
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"-"},
		},
		DefinitionProvider:      true,
		ReferencesProvider:      true,
		RenameProvider:          true,
		DocumentSymbolProvider:  true,
		WorkspaceSymbolProvider: true,
		ColorProvider:           s.cfg.ColorPreview,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: strPtr("1.0.0"),
		},
	}, nil
}

func (s *Server) handleInitialized(context *glsp.Context, params *protocol.InitializedParams) error {
	s.context = context

	if s.rootPath == "" {
		log.Info("no workspace root, skipping workspace scan")
		return nil
	}

	s.scanner = workspace.NewScanner(s.rootPath, s.cfg, s.index)
	go func() {
		if _, err := s.scanner.Scan(); err != nil {
			log.Warn("workspace scan: %v", err)
		}
	}()

	watcher, err := workspace.NewWatcher(s.scanner, func(uri string) bool {
		return s.documents.Get(uri) != nil
	})
	if err != nil {
		log.Warn("file watcher unavailable: %v", err)
		return nil
	}
	if err := watcher.Start(); err != nil {
		log.Warn("starting file watcher: %v", err)
		return nil
	}
	s.watcher = watcher
	return nil
}

func (s *Server) handleShutdown(context *glsp.Context) error {
	log.Info("shutting down")
	if s.watcher != nil {
		s.watcher.Stop()
	}
	return nil
}

func (s *Server) handleSetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	log.Debug("trace level set to %s", params.Value)
	return nil
}

func (s *Server) handleDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	err := s.DidOpen(params.TextDocument.URI, params.TextDocument.LanguageID, int(params.TextDocument.Version), params.TextDocument.Text)
	if err != nil {
		return err
	}
	s.publishDiagnostics(context, params.TextDocument.URI)
	return nil
}

// DidOpen tracks a newly opened document and indexes its variables.
func (s *Server) DidOpen(uri, languageID string, version int, content string) error {
	log.Debug("opened %s (language %s, version %d)", uri, languageID, version)
	if err := s.documents.DidOpen(uri, languageID, version, content); err != nil {
		return err
	}
	s.reindexDocument(uri, content)
	return nil
}

func (s *Server) handleDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	changes := make([]protocol.TextDocumentContentChangeEvent, 0, len(params.ContentChanges))
	for _, change := range params.ContentChanges {
		switch ev := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, ev)
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, protocol.TextDocumentContentChangeEvent{Text: ev.Text})
		}
	}

	err := s.DidChange(params.TextDocument.URI, int(params.TextDocument.Version), changes)
	if err != nil {
		return err
	}
	s.publishDiagnostics(context, params.TextDocument.URI)
	return nil
}

// DidChange applies content changes and re-indexes the document.
func (s *Server) DidChange(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	content, err := s.documents.DidChange(uri, version, changes)
	if err != nil {
		return err
	}
	s.reindexDocument(uri, content)
	return nil
}

func (s *Server) handleDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return s.DidClose(params.TextDocument.URI)
}

// DidClose stops tracking a document. Workspace files fall back to their
// on-disk content; anything else leaves the index.
func (s *Server) DidClose(uri string) error {
	log.Debug("closed %s", uri)
	if err := s.documents.DidClose(uri); err != nil {
		return err
	}
	s.dropTree(uri)

	path := uriutil.URIToPath(uri)
	if s.scanner != nil && s.scanner.Matches(path) {
		if _, err := os.Stat(path); err == nil {
			if s.scanner.ScanFile(path) {
				return nil
			}
		}
	}
	s.index.RemoveFile(uri)
	return nil
}

// reindexDocument replaces uri's index contributions from the buffer text.
// Markup documents also refresh their retained structural model.
// Unsupported file types are left alone.
func (s *Server) reindexDocument(uri, content string) {
	if scanner.IsMarkup(uri) {
		defs, uses, tree := scanner.ScanHTMLTree(uri, content)
		s.setTree(uri, tree)
		s.index.IndexFile(uri, defs, uses)
		return
	}
	defs, uses, ok := scanner.ScanDocument(uri, content)
	if !ok {
		return
	}
	s.index.IndexFile(uri, defs, uses)
}

func (s *Server) setTree(uri string, tree *dom.Tree) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	s.trees[uri] = tree
}

func (s *Server) dropTree(uri string) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	delete(s.trees, uri)
}

func (s *Server) treeFor(uri string) *dom.Tree {
	s.treesMu.RLock()
	defer s.treesMu.RUnlock()
	return s.trees[uri]
}

func rootPathFrom(params *protocol.InitializeParams) string {
	if params.RootURI != nil && *params.RootURI != "" {
		return uriutil.URIToPath(*params.RootURI)
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return *params.RootPath
	}
	if len(params.WorkspaceFolders) > 0 {
		return uriutil.URIToPath(params.WorkspaceFolders[0].URI)
	}
	return ""
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
