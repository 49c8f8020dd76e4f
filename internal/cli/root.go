// Package cli is the spendly command line: a local-first ledger with SMS
// scanning, export and sync against a Spendly server.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/config"
	"github.com/KumarDhananjaya/Spendly/internal/ledger"
	"github.com/KumarDhananjaya/Spendly/internal/localstore"
	"github.com/KumarDhananjaya/Spendly/internal/reconcile"
	"github.com/KumarDhananjaya/Spendly/internal/remote"
	"github.com/KumarDhananjaya/Spendly/internal/syncqueue"
	"github.com/KumarDhananjaya/Spendly/internal/unlock"

	"github.com/spf13/cobra"
)

var ErrLocked = errors.New("ledger is locked: pass --pin or set SPENDLY_PIN")

// app is the opened client state shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	dataDir string

	store   *ledger.Store
	queue   *syncqueue.Queue
	session *remote.SessionFile
	lock    *unlock.Lock
	client  *remote.Client
	now     func() time.Time
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{now: time.Now}
	var configPath, dataDir, pin string

	root := &cobra.Command{
		Use:   "spendly",
		Short: "Offline-first personal finance ledger",
		Long: `Spendly keeps accounts, categories, transactions and budgets in a local
ledger, turns bank SMS text into transactions and syncs with a Spendly
server when one is configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if pin == "" {
				pin = os.Getenv("SPENDLY_PIN")
			}
			return a.open(configPath, dataDir, pin)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default spendly.yaml in . or ~/.spendly)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the local ledger")
	root.PersistentFlags().StringVar(&pin, "pin", "", "PIN when the ledger is locked")

	root.AddCommand(
		newSummaryCmd(a),
		newAccountCmd(a),
		newCategoryCmd(a),
		newTxCmd(a),
		newBudgetCmd(a),
		newCurrencyCmd(a),
		newRecurringCmd(a),
		newScanCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newEraseCmd(a),
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newSyncCmd(a),
		newLockCmd(a),
	)
	return root
}

// open loads config and local state and enforces the PIN lock.
func (a *app) open(configPath, dataDir, pin string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = config.NewLogger(cfg.Log, os.Stderr)

	a.dataDir = cfg.Client.DataDir
	if dataDir != "" {
		a.dataDir = dataDir
	}
	if err := os.MkdirAll(a.dataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	a.lock = unlock.New(filepath.Join(a.dataDir, "lock.json"))
	if a.lock.Required() && !a.lock.Attempt(pin) {
		return ErrLocked
	}

	key := cfg.Client.EncryptionKey
	ledgerFile := localstore.New[ledger.Snapshot](filepath.Join(a.dataDir, "ledger.json"), key)
	queueFile := localstore.New[syncqueue.State](filepath.Join(a.dataDir, "queue.json"), key)

	qstate, _, err := queueFile.Load()
	if err != nil {
		return err
	}
	a.queue = syncqueue.New(
		syncqueue.WithPersister(queueFile),
		syncqueue.WithState(qstate),
		syncqueue.WithClock(a.now),
		syncqueue.WithLogger(a.log),
	)

	snap, found, err := ledgerFile.Load()
	if err != nil {
		return err
	}
	opts := []ledger.Option{
		ledger.WithPersister(ledgerFile),
		ledger.WithRecorder(a.queue),
		ledger.WithClock(a.now),
		ledger.WithLogger(a.log),
	}
	if found {
		opts = append(opts, ledger.WithSnapshot(snap))
	} else if cfg.Client.Currency != "" {
		opts = append(opts, ledger.WithSnapshot(ledger.Snapshot{Currency: cfg.Client.Currency}))
	}
	a.store = ledger.New(opts...)

	a.session = remote.NewSessionFile(filepath.Join(a.dataDir, "session.json"), key)
	a.client = remote.New(cfg.Client.APIURL, a.syncTimeout())
	return nil
}

func (a *app) syncTimeout() time.Duration {
	if a.cfg.Client.SyncTimeoutSeconds <= 0 {
		return reconcile.DefaultTimeout
	}
	return time.Duration(a.cfg.Client.SyncTimeoutSeconds) * time.Second
}

func (a *app) reconciler() *reconcile.Reconciler {
	return reconcile.New(a.client, a.queue, a.store,
		reconcile.WithConnectivity(a.client),
		reconcile.WithTokens(a.session),
		reconcile.WithTimeout(a.syncTimeout()),
		reconcile.WithLogger(a.log),
	)
}
