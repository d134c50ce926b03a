package chainsight_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	chainsight "github.com/hari6963/chainsight"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "internal")

	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := `enabled: false
rule: "links >= 4"
bulk_threshold: 50
`

	if err := os.WriteFile(filepath.Join(root, ".chainsight.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	// Discovery walks up from the nested directory.
	loaded, err := chainsight.LoadConfig(nested)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded.HintsEnabled() {
		t.Error("HintsEnabled() = true, want false")
	}

	if loaded.BulkThreshold != 50 {
		t.Errorf("BulkThreshold = %d, want 50", loaded.BulkThreshold)
	}

	rule, err := loaded.CompiledRule()
	if err != nil {
		t.Fatalf("CompiledRule: %v", err)
	}

	if rule == nil || rule.Expression() != "links >= 4" {
		t.Errorf("rule = %v, want links >= 4", rule)
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	_, err := chainsight.LoadConfig(t.TempDir())
	if !errors.Is(err, chainsight.ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg *chainsight.Config

	if !cfg.HintsEnabled() {
		t.Error("nil config should leave hints enabled")
	}

	rule, err := cfg.CompiledRule()
	if err != nil || rule != nil {
		t.Errorf("nil config rule = (%v, %v), want (nil, nil)", rule, err)
	}
}
