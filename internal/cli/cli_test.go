package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		if err := GenerateCompletion(&buf, shell); err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(buf.String(), "bizhub") || !strings.Contains(buf.String(), "migrate") {
			t.Fatalf("%s script missing commands", shell)
		}
	}
	if err := GenerateCompletion(&bytes.Buffer{}, "powershell"); err == nil {
		t.Fatal("expected error for unsupported shell")
	}
}

func TestPrinterWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	if got := p.Outcome("failure"); got != "failure" {
		t.Fatalf("outcome = %q", got)
	}
	p.Success("done")
	if buf.String() != "✓ done\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
