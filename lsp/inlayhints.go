package lsp

import (
	"context"
	"encoding/json"
	"sort"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	chainsight "github.com/hari6963/chainsight"
)

// go.lsp.dev/protocol v0.12.0 predates the LSP 3.17 inlay-hint types, so
// the request is dispatched through the protocol.Server custom-request hook
// with wire-compatible types defined here.

// MethodInlayHint is the textDocument/inlayHint request method.
const MethodInlayHint = "textDocument/inlayHint"

// InlayHintParams are the parameters of a textDocument/inlayHint request.
type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

// InlayHintKind is the kind of an inlay hint.
type InlayHintKind int

// InlayHintKindType marks hints for types of expressions.
const InlayHintKindType InlayHintKind = 1

// InlayHint is an LSP 3.17 inlay hint.
type InlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        string            `json:"label"`
	Kind         InlayHintKind     `json:"kind,omitempty"`
	PaddingLeft  bool              `json:"paddingLeft,omitempty"`
	PaddingRight bool              `json:"paddingRight,omitempty"`

	// Data routes client-side context-menu actions for the hint.
	Data interface{} `json:"data,omitempty"`
}

// Request handles custom requests not covered by protocol v0.12.0.
func (s *Server) Request(_ context.Context, method string, params interface{}) (interface{}, error) {
	if method != MethodInlayHint {
		return nil, nil //nolint:nilnil // unhandled custom methods return empty results
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	var p InlayHintParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	return s.inlayHints(&p), nil
}

// inlayHints renders the document's current hint batch for the requested
// range. The batch was computed by the latest completed background pass;
// this handler only converts and filters, so it stays fast on the request
// path.
func (s *Server) inlayHints(params *InlayHintParams) []InlayHint {
	s.logger.Debug("InlayHint",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || len(doc.Batch) == 0 {
		return nil
	}

	offsets := make([]int, 0, len(doc.Batch))
	for offset := range doc.Batch {
		offsets = append(offsets, offset)
	}

	sort.Ints(offsets)

	var hints []InlayHint

	for _, offset := range offsets {
		rec := doc.Batch[offset]

		pos := positionForOffset(doc.Content, offset)
		if !positionInRange(pos, params.Range) {
			continue
		}

		hints = append(hints, InlayHint{
			Position:    pos,
			Label:       rec.Label,
			Kind:        InlayHintKindType,
			PaddingLeft: true,
			Data:        chainsight.ContextMenuID,
		})
	}

	return hints
}
