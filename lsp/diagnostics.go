package lsp

import (
	"context"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/hari6963/chainsight/analysis"
)

// publishDiagnostics converts package-load errors to LSP diagnostics and
// publishes them for the document. Load errors never fail a pass; they
// explain why some chains carry no hints.
func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, version int32, analyzed *analysis.AnalyzedFile) {
	if s.client == nil {
		return
	}

	diagnostics := make([]protocol.Diagnostic, 0, len(analyzed.LoadErrors))

	for _, loadErr := range analyzed.LoadErrors {
		diagnostics = append(diagnostics, convertLoadError(analyzed.Path, loadErr))
	}

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     uint32(version), //nolint:gosec // LSP version numbers are always non-negative
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics", zap.Error(err))
	}
}

// convertLoadError maps a go/packages error to an LSP diagnostic. Errors
// positioned in other files of the package are reported at the top of the
// document, since they still affect its type resolution.
func convertLoadError(path string, loadErr packages.Error) protocol.Diagnostic {
	rng := protocol.Range{}

	if file, line, col, ok := parseErrorPos(loadErr.Pos); ok && file == path {
		pos := protocol.Position{
			Line:      uint32(max(0, line-1)), //nolint:gosec // G115: small line numbers
			Character: uint32(max(0, col-1)),  //nolint:gosec // G115: small column numbers
		}
		rng = protocol.Range{Start: pos, End: pos}
	}

	return protocol.Diagnostic{
		Range:    rng,
		Severity: protocol.DiagnosticSeverityWarning,
		Source:   "chainsight",
		Message:  loadErr.Msg,
	}
}

// parseErrorPos splits a "file:line:col" position string.
func parseErrorPos(pos string) (file string, line, col int, ok bool) {
	if pos == "" || pos == "-" {
		return "", 0, 0, false
	}

	parts := strings.Split(pos, ":")
	if len(parts) < 3 {
		return "", 0, 0, false
	}

	col, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, 0, false
	}

	line, err = strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return "", 0, 0, false
	}

	return strings.Join(parts[:len(parts)-2], ":"), line, col, true
}
