package lsp

import (
	"net/url"
	"strings"

	"go.lsp.dev/protocol"
)

// URIToPath converts a document URI to a file system path.
func URIToPath(uri protocol.DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil {
		// Fallback: strip file:// prefix
		return strings.TrimPrefix(string(uri), "file://")
	}

	if u.Scheme == "file" {
		return u.Path
	}

	return string(uri)
}

// PathToURI converts a file system path to a document URI.
func PathToURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI("file://" + path)
}

// positionForOffset converts a byte offset in content to an LSP position.
// Characters are counted in bytes; hint offsets always land directly after
// a call's closing parenthesis, where byte and UTF-16 columns agree for
// ASCII-clean lines.
func positionForOffset(content string, offset int) protocol.Position {
	if offset > len(content) {
		offset = len(content)
	}

	line := strings.Count(content[:offset], "\n")

	start := strings.LastIndexByte(content[:offset], '\n') + 1

	return protocol.Position{
		Line:      uint32(line),           //nolint:gosec // G115: line numbers are small
		Character: uint32(offset - start), //nolint:gosec // G115: column numbers are small
	}
}

// positionInRange reports whether pos lies within r (inclusive of the end
// position, matching how clients request visible ranges).
func positionInRange(pos protocol.Position, r protocol.Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}

	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}

	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}

	return true
}
