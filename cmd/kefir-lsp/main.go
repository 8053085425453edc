// Command kefir-lsp runs an LSP server over .kfir textual IR files.
// Adapted from cmd/kanso-lsp/main.go's glsp wiring, with the Kanso
// source-language handler swapped for internal/lspsrv's opt-IR handler and
// semantic tokens dropped in favor of hover (see internal/lspsrv for why).
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"kefir/internal/lspsrv"
)

const lsName = "kefir"

var version = "0.0.1"

func main() {
	commonlog.Configure(1, nil)

	h := lspsrv.NewHandler()

	handler := protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		SetTrace:              h.SetTrace,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
		TextDocumentHover:     h.TextDocumentHover,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("Starting %s LSP server (v%s)...", lsName, version)
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting kefir LSP server:", err)
		os.Exit(1)
	}
}
