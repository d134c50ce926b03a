package lsp

import (
	"testing"

	"go.lsp.dev/protocol"
)

func TestURIToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uri  protocol.DocumentURI
		want string
	}{
		{"file URI", "file:///home/user/main.go", "/home/user/main.go"},
		{"file URI with spaces", "file:///home/user/my%20project/main.go", "/home/user/my project/main.go"},
		{"non-file scheme", "untitled:Untitled-1", "untitled:Untitled-1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := URIToPath(tt.uri); got != tt.want {
				t.Errorf("URIToPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestPathToURI(t *testing.T) {
	t.Parallel()

	if got := PathToURI("/tmp/demo.go"); got != "file:///tmp/demo.go" {
		t.Errorf("PathToURI() = %q", got)
	}
}

func TestPositionForOffset(t *testing.T) {
	t.Parallel()

	content := "alpha\nbeta\ngamma\n"

	tests := []struct {
		name   string
		offset int
		want   protocol.Position
	}{
		{"start", 0, protocol.Position{Line: 0, Character: 0}},
		{"mid first line", 3, protocol.Position{Line: 0, Character: 3}},
		{"start of second line", 6, protocol.Position{Line: 1, Character: 0}},
		{"end of second line", 10, protocol.Position{Line: 1, Character: 4}},
		{"past end clamps", 100, protocol.Position{Line: 3, Character: 0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := positionForOffset(content, tt.offset); got != tt.want {
				t.Errorf("positionForOffset(%d) = %+v, want %+v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestPositionInRange(t *testing.T) {
	t.Parallel()

	r := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 4},
		End:   protocol.Position{Line: 3, Character: 2},
	}

	tests := []struct {
		name string
		pos  protocol.Position
		want bool
	}{
		{"inside", protocol.Position{Line: 2, Character: 0}, true},
		{"at start", protocol.Position{Line: 1, Character: 4}, true},
		{"at end", protocol.Position{Line: 3, Character: 2}, true},
		{"before start column", protocol.Position{Line: 1, Character: 3}, false},
		{"after end column", protocol.Position{Line: 3, Character: 3}, false},
		{"line above", protocol.Position{Line: 0, Character: 9}, false},
		{"line below", protocol.Position{Line: 4, Character: 0}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := positionInRange(tt.pos, r); got != tt.want {
				t.Errorf("positionInRange(%+v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}
