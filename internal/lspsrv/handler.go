// Package lspsrv implements an LSP server over the textual IR syntax
// (.kfir files): publish parse/build/pass-pipeline diagnostics on
// open/change, and answer hover requests with the opcode, block and liveness
// fact internal/passdriver computed for the instruction under the cursor
// (no dominator facts are shown).
// Structurally grounded on internal/lsp/handler.go's glsp wiring (content
// cache keyed by file path, mutex-guarded maps, URI<->path conversion);
// the AST cache and semantic-token walker are replaced with an
// internal/ir.Module cache and a hover lookup into internal/passdriver's
// analysis report, since highlighting opt-IR mnemonics is not a useful
// editor feature the way highlighting Kanso source syntax is.
package lspsrv

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kefir/internal/ir"
	"kefir/internal/irtext"
	"kefir/internal/optconfig"
	"kefir/internal/passdriver"
)

// Handler implements the LSP server methods for .kfir files.
type Handler struct {
	mu       sync.RWMutex
	content  map[string]string
	modules  map[string]*ir.Module
	reports  map[string]map[string]*passdriver.Report // path -> function name -> report
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		modules: make(map[string]*ir.Module),
		reports: make(map[string]map[string]*passdriver.Report),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("kefir-lsp Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider: ptrBool(true),
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("kefir-lsp Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("kefir-lsp Shutdown")
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.refresh(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.RLock()
	text := h.content[path]
	h.mu.RUnlock()
	for _, change := range params.ContentChanges {
		if full, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			text = full.Text
		}
	}
	return h.refresh(ctx, params.TextDocument.URI, text)
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)
	delete(h.reports, path)
	return nil
}

func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	module := h.modules[path]
	reports := h.reports[path]
	text := h.content[path]
	h.mu.RUnlock()
	if module == nil {
		return nil, nil
	}

	name, ok := valueNameAtPosition(text, params.Position)
	if !ok {
		return nil, nil
	}

	var lines []string
	module.Functions(func(fnName string, fn *ir.Function) bool {
		ref, err := strconv.Atoi(name)
		if err != nil {
			return true
		}
		inst, err := fn.Instr(ir.InstrRef(ref))
		if err != nil {
			return true
		}
		report := reports[fnName]
		lines = append(lines, fmt.Sprintf("**%%%d** = %s in function @%s, block b%d", ref, inst.Opcode, fnName, inst.Block))
		if report != nil && report.Liveness != nil {
			lines = append(lines, fmt.Sprintf("live out of block: %v", report.Liveness.IsAlive(inst.ID, inst.Block)))
		}
		return false
	})
	if len(lines) == 0 {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: strings.Join(lines, "\n\n"),
		},
	}, nil
}

func (h *Handler) refresh(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	diags, module, reports := analyze(path, text)

	h.mu.Lock()
	if module != nil {
		h.modules[path] = module
		h.reports[path] = reports
	}
	h.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
	return nil
}

// analyze parses, builds, and runs the pass pipeline over text, returning
// LSP diagnostics for whatever stage fails plus the best module/report set
// it managed to produce.
func analyze(path, text string) ([]protocol.Diagnostic, *ir.Module, map[string]*passdriver.Report) {
	file, err := irtext.ParseString(path, text)
	if err != nil {
		return []protocol.Diagnostic{parseErrorDiagnostic(err)}, nil, nil
	}

	module, err := irtext.Build(file)
	if err != nil {
		return []protocol.Diagnostic{buildErrorDiagnostic(err)}, nil, nil
	}

	reports := make(map[string]*passdriver.Report)
	var diags []protocol.Diagnostic
	module.Functions(func(name string, fn *ir.Function) bool {
		report, err := passdriver.Run(fn, optconfig.Default())
		if err != nil {
			diags = append(diags, diagnosticFromError(name, err))
			return true
		}
		reports[name] = report
		return true
	})

	return diags, module, reports
}

func uriToPath(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

// valueNameAtPosition extracts the digits of a "%N" token at the given
// 0-based line/character position, for hover lookups.
func valueNameAtPosition(text string, pos protocol.Position) (string, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", false
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isDigit(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isDigit(line[end]) {
		end++
	}
	if start == end || start == 0 || line[start-1] != '%' {
		return "", false
	}
	return line[start:end], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
