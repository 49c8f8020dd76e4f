package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/KumarDhananjaya/Spendly/internal/config"
	"github.com/KumarDhananjaya/Spendly/internal/database"
	"github.com/KumarDhananjaya/Spendly/internal/router"

	"github.com/gin-gonic/gin"
)

func TestTransactions(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")

	env.mustRun(t, "tx", "add", "100", "--type", "earning", "--category", "7")
	out := env.mustRun(t, "tx", "add", "30", "--category", "1", "--note", "lunch")
	id := recordedID(t, out)

	if out := env.mustRun(t, "summary"); !strings.Contains(out, "₹70.00") {
		t.Errorf("summary after adds = %q", out)
	}

	env.mustRun(t, "tx", "edit", id, "--amount", "50")
	out = env.mustRun(t, "account", "list")
	if !strings.Contains(out, "Cash Wallet") || !strings.Contains(out, "₹50.00") {
		t.Errorf("account list after edit = %q", out)
	}

	out = env.mustRun(t, "tx", "list")
	if !strings.Contains(out, "lunch") || !strings.Contains(out, "Food") || !strings.Contains(out, "Salary") {
		t.Errorf("tx list = %q", out)
	}

	env.mustRun(t, "tx", "rm", id)
	if out := env.mustRun(t, "summary"); !strings.Contains(out, "₹100.00") {
		t.Errorf("summary after delete = %q", out)
	}

	if _, err := env.run(t, "tx", "add", "-5", "--category", "1"); err == nil {
		t.Error("negative amount accepted")
	}
	if _, err := env.run(t, "tx", "add", "5", "--category", "1", "--account", "nope"); err == nil {
		t.Error("unknown account accepted")
	}
	if _, err := env.run(t, "tx", "rm", "missing"); err == nil {
		t.Error("rm of unknown id succeeded")
	}
}

func TestTransfer(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")

	out := env.mustRun(t, "account", "add", "HDFC", "--balance", "1000")
	bank := regexp.MustCompile(`\(([^)]+)\)`).FindStringSubmatch(out)[1]

	env.mustRun(t, "tx", "add", "250", "--type", "transfer", "--account", bank, "--to", "main-cash")
	out = env.mustRun(t, "account", "list")
	if !strings.Contains(out, "₹750.00") || !strings.Contains(out, "₹250.00") {
		t.Errorf("balances after transfer = %q", out)
	}
	if out := env.mustRun(t, "summary"); !strings.Contains(out, "₹1000.00") {
		t.Errorf("transfer changed total balance: %q", out)
	}
}

func TestCategoriesAndBudgets(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")

	out := env.mustRun(t, "category", "add", "Pets", "--icon", "Dog")
	pets := regexp.MustCompile(`\(([^)]+)\)`).FindStringSubmatch(out)[1]

	env.mustRun(t, "budget", "set", pets, "300")
	env.mustRun(t, "tx", "add", "120", "--category", pets)

	out = env.mustRun(t, "budget", "list")
	if !strings.Contains(out, "Pets") || !strings.Contains(out, "₹120.00") || !strings.Contains(out, "₹180.00") {
		t.Errorf("budget list = %q", out)
	}
	if _, err := env.run(t, "budget", "set", "missing", "10"); err == nil {
		t.Error("budget on unknown category accepted")
	}

	env.mustRun(t, "category", "rm", pets)
	if out := env.mustRun(t, "category", "list"); strings.Contains(out, "Pets") {
		t.Errorf("category still listed: %q", out)
	}

	if out := env.mustRun(t, "currency", "$"); strings.TrimSpace(out) != "$" {
		t.Errorf("currency = %q", out)
	}
	if out := env.mustRun(t, "summary"); !strings.Contains(out, "$-120.00") {
		t.Errorf("summary after currency change = %q", out)
	}
}

func TestRecurring(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")
	env.mustRun(t, "tx", "add", "499", "--category", "6", "--note", "internet")
	env.mustRun(t, "tx", "add", "499", "--category", "6", "--note", "internet")

	if out := env.mustRun(t, "recurring"); !strings.Contains(out, "Flagged 2") {
		t.Errorf("recurring = %q", out)
	}
}

func TestScan(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")
	sms := "HDFC Bank: Rs 500.00 debited from a/c x1234 for Amazon\n\nhello there\nSBI: Rs 1000.00 credited to your a/c x5678\n"

	out := env.mustRunIn(t, sms, "scan")
	if !strings.Contains(out, "2 match(es)") || !strings.Contains(out, "Amazon") {
		t.Errorf("dry scan = %q", out)
	}
	if out := env.mustRun(t, "tx", "list"); strings.Contains(out, "expense") {
		t.Errorf("dry scan committed: %q", out)
	}

	file := filepath.Join(t.TempDir(), "sms.txt")
	if err := os.WriteFile(file, []byte(sms), 0o600); err != nil {
		t.Fatal(err)
	}
	if out := env.mustRun(t, "scan", file, "--commit"); !strings.Contains(out, "Imported 2") {
		t.Errorf("commit scan = %q", out)
	}
	if out := env.mustRun(t, "summary"); !regexp.MustCompile(`Balance\s+₹500\.00`).MatchString(out) {
		t.Errorf("summary after import = %q", out)
	}
}

func TestScan_Skip(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")
	sms := "Order 12345 shipped\nSpent 80 on food\nRs 20 debited for tea\n"

	out := env.mustRunIn(t, sms, "scan")
	if !regexp.MustCompile(`(?m)^1\s+expense\s+₹12345\.00`).MatchString(out) {
		t.Errorf("dry scan rows = %q", out)
	}
	if _, err := env.runIn(t, sms, "scan", "--commit", "--skip", "4"); err == nil {
		t.Error("skip of a missing row accepted")
	}

	out = env.mustRunIn(t, sms, "scan", "--commit", "--skip", "1,3")
	if !strings.Contains(out, "Imported 1") {
		t.Errorf("commit scan = %q", out)
	}
	list := env.mustRun(t, "tx", "list")
	if strings.Contains(list, "₹12345.00") || strings.Contains(list, "₹20.00") || !strings.Contains(list, "₹80.00") {
		t.Errorf("tx list after skip = %q", list)
	}

	if out := env.mustRunIn(t, sms, "scan", "--commit", "--skip", "1,2,3"); !strings.Contains(out, "Nothing to import") {
		t.Errorf("all skipped = %q", out)
	}
}

func TestExportImportErase(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")
	env.mustRun(t, "tx", "add", "42.5", "--category", "2", "--note", "cab, airport")

	out := env.mustRun(t, "export", "csv")
	if !strings.HasPrefix(out, "Date,Type,Amount,Category,Account,Note,Recurring\n") ||
		!strings.Contains(out, `,expense,42.5,Transport,Cash Wallet,"cab, airport",No`) {
		t.Errorf("csv = %q", out)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "ledger.json")
	backupPath := filepath.Join(dir, "ledger.bak")
	env.mustRun(t, "export", "json", "--out", jsonPath)
	env.mustRun(t, "export", "backup", "--out", backupPath)
	env.mustRun(t, "export", "xlsx", "--out", filepath.Join(dir, "ledger.xlsx"))
	if _, err := env.run(t, "export", "xlsx"); err == nil {
		t.Error("xlsx to stdout accepted")
	}

	if _, err := env.run(t, "erase"); err == nil {
		t.Error("erase without --yes succeeded")
	}
	env.mustRun(t, "erase", "--yes")
	if out := env.mustRun(t, "account", "list"); strings.Contains(out, "Cash Wallet") {
		t.Errorf("accounts survive erase: %q", out)
	}

	if out := env.mustRun(t, "import", jsonPath); !strings.Contains(out, "Restored 1 transaction(s)") {
		t.Errorf("import json = %q", out)
	}
	env.mustRun(t, "erase", "--yes")
	if out := env.mustRun(t, "import", backupPath, "--sealed"); !strings.Contains(out, "Restored 1 transaction(s)") {
		t.Errorf("import backup = %q", out)
	}
	if _, err := env.run(t, "import", backupPath); err == nil {
		t.Error("sealed file accepted as plain json")
	}
	out = env.mustRun(t, "summary")
	if !strings.Contains(out, "₹-42.50") || !strings.Contains(out, "1 change(s) waiting to sync") {
		t.Errorf("summary after restore = %q", out)
	}

	env.mustRun(t, "erase", "--yes", "--reset-sync")
	if out := env.mustRun(t, "summary"); strings.Contains(out, "waiting to sync") {
		t.Errorf("queue survives --reset-sync: %q", out)
	}
}

func TestLock(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")

	if _, err := env.run(t, "lock", "set", "12ab"); err == nil {
		t.Error("non-numeric PIN accepted")
	}
	env.mustRun(t, "lock", "set", "1234")

	if _, err := env.run(t, "summary"); !errors.Is(err, ErrLocked) {
		t.Errorf("locked summary err = %v", err)
	}
	if _, err := env.run(t, "summary", "--pin", "9999"); !errors.Is(err, ErrLocked) {
		t.Errorf("wrong pin err = %v", err)
	}
	env.mustRun(t, "summary", "--pin", "1234")

	t.Setenv("SPENDLY_PIN", "1234")
	env.mustRun(t, "lock", "clear")
	t.Setenv("SPENDLY_PIN", "")
	env.mustRun(t, "summary")
}

func TestSync_Offline(t *testing.T) {
	env := newEnv(t, "http://127.0.0.1:1")
	env.mustRun(t, "tx", "add", "10", "--category", "1")

	out := env.mustRun(t, "sync")
	if !strings.Contains(out, "Not logged in") || !strings.Contains(out, "1 change(s) pending") {
		t.Errorf("offline sync = %q", out)
	}
}

func TestSync_TwoDevices(t *testing.T) {
	srv := setupServer(t)
	phone := newEnv(t, srv.URL)
	laptop := newEnv(t, srv.URL)

	phone.mustRun(t, "tx", "add", "42", "--category", "1", "--note", "dosa")
	phone.mustRun(t, "register", "Asha@Example.com", "--password", "secret1")
	if out := phone.mustRun(t, "sync"); !strings.Contains(out, "sent 1") {
		t.Errorf("phone sync = %q", out)
	}
	if _, err := phone.run(t, "register", "asha@example.com", "--password", "secret1"); err == nil {
		t.Error("duplicate register succeeded")
	}

	if _, err := laptop.run(t, "login", "asha@example.com", "--password", "wrong-pass"); err == nil {
		t.Error("login with wrong password succeeded")
	}
	laptop.mustRun(t, "login", "asha@example.com", "--password", "secret1")
	if out := laptop.mustRun(t, "sync"); !strings.Contains(out, "applied 1") {
		t.Errorf("laptop sync = %q", out)
	}
	out := laptop.mustRun(t, "tx", "list")
	if !strings.Contains(out, "dosa") || !strings.Contains(out, "₹42.00") {
		t.Errorf("laptop tx list = %q", out)
	}

	laptop.mustRun(t, "logout")
	if out := laptop.mustRun(t, "sync"); !strings.Contains(out, "Not logged in") {
		t.Errorf("sync after logout = %q", out)
	}
}

// ==================== helpers ====================

type env struct {
	config  string
	dataDir string
}

func newEnv(t *testing.T, apiURL string) *env {
	t.Helper()
	t.Setenv("SPENDLY_PIN", "")
	t.Setenv("SPENDLY_PASSWORD", "")
	dir := t.TempDir()
	cfg := filepath.Join(dir, "spendly.yaml")
	yaml := fmt.Sprintf("log:\n  level: error\nclient:\n  api_url: %s\n  encryption_key: test-key\n  sync_timeout_seconds: 5\n", apiURL)
	if err := os.WriteFile(cfg, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return &env{config: cfg, dataDir: filepath.Join(dir, "data")}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	return e.runIn(t, "", args...)
}

func (e *env) runIn(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--config", e.config, "--data-dir", e.dataDir}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	return e.mustRunIn(t, "", args...)
}

func (e *env) mustRunIn(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := e.runIn(t, stdin, args...)
	if err != nil {
		t.Fatalf("spendly %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func recordedID(t *testing.T, out string) string {
	t.Helper()
	m := regexp.MustCompile(`\(([0-9a-f-]{36})\)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no id in %q", out)
	}
	return m[1]
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "server.db")},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "spendly", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: 4},
		App:      config.AppSubConfig{PageSize: 10},
	}
	db, err := database.Init(cfg.Database)
	if err != nil {
		t.Fatalf("Init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	srv := httptest.NewServer(router.SetupRouter(cfg, db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv
}
