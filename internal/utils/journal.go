package utils

import (
	"ttlpanel/internal/config"
	"ttlpanel/internal/journal"
)

// NewJournal opens the operation journal described by cfg
func NewJournal(cfg config.Config) (journal.Service, error) {
	path := cfg.Journal.Path
	if path == "" {
		stateDir, err := config.StateDir()
		if err != nil {
			return nil, err
		}
		path = journal.DefaultPath(stateDir)
	}
	return journal.Open(path, cfg.Journal.Retention)
}
