package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		t.Fatal(err)
	}
	ups, downs := 0, 0
	for _, e := range entries {
		n := e.Name()
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups++
		case strings.HasSuffix(n, ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("expected paired up/down migrations, got %d up and %d down", ups, downs)
	}
}

func TestRunRequiresDSN(t *testing.T) {
	if err := Run(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
