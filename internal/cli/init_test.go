package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = SetupLogger("bogus")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info level should be enabled")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CUPSREPORT_TEST_VAR=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("CUPSREPORT_TEST_VAR", "")
	os.Unsetenv("CUPSREPORT_TEST_VAR")

	LoadEnvFile()

	if got := os.Getenv("CUPSREPORT_TEST_VAR"); got != "from-dotenv" {
		t.Errorf("CUPSREPORT_TEST_VAR = %q, want from-dotenv", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	chdir(t, t.TempDir())
	LoadEnvFile()
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestInitSQLite(t *testing.T) {
	repo := InitSQLite(SetupLogger("error"), filepath.Join(t.TempDir(), "cli.db"))
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
