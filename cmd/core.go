package cmd

import (
	"fmt"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/config"
	"github.com/alantheprice/angela/pkg/confirm"
	"github.com/alantheprice/angela/pkg/executor"
	"github.com/alantheprice/angela/pkg/fsexec"
	"github.com/alantheprice/angela/pkg/journal"
	"github.com/alantheprice/angela/pkg/plan"
	"github.com/alantheprice/angela/pkg/rollback"
	"github.com/alantheprice/angela/pkg/utils"
)

// core bundles every execution-core subsystem this CLI's commands need,
// wired from the on-disk preferences file.
type core struct {
	cfg        *config.Config
	classifier *classifier.Classifier
	gate       *confirm.Gate
	formatter  confirm.Formatter
	shell      *executor.Executor
	fs         *fsexec.Executor
	journal    *journal.Store
	orch       *plan.Orchestrator
	rollback   *rollback.Manager
	logger     *utils.Logger
}

// openCore loads preferences and opens the journal, failing loudly if
// another process already holds the journal's single-writer lock (§5).
func openCore() (*core, error) {
	cfg, err := config.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	j, err := journal.Open(cfg.JournalDir)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	c := classifier.New()
	gate := confirm.New(cfg.Preferences())
	formatter := confirm.NewTerminalFormatter()
	shell := executor.New()
	fs := fsexec.New(cfg.BackupDir)

	orch := plan.New(c, gate, formatter, shell, fs, j)
	rb := rollback.New(j, fs)
	logger := utils.GetLogger(false)

	return &core{
		cfg:        cfg,
		classifier: c,
		gate:       gate,
		formatter:  formatter,
		shell:      shell,
		fs:         fs,
		journal:    j,
		orch:       orch,
		rollback:   rb,
		logger:     logger,
	}, nil
}

func (c *core) Close() error {
	return c.journal.Close()
}
