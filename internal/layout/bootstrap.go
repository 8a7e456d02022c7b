package layout

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/agora/internal/store"
)

// StoreReport lists what Bootstrap found and did for one store.
type StoreReport struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
}

// Report is the outcome of Bootstrap, one entry per store in layout order.
type Report struct {
	Stores []StoreReport `json:"stores"`
}

// CreatedCount returns the number of tables created across all stores.
func (r Report) CreatedCount() int {
	n := 0
	for _, s := range r.Stores {
		n += len(s.Created)
	}
	return n
}

// Bootstrap opens every store of l under dataDir, creating files as
// needed, and creates the declared tables that are missing. Existing
// tables are left as they are, even if their columns differ.
func Bootstrap(ctx context.Context, dataDir string, l *Layout, opts ...store.Option) (Report, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create data dir: %w", err)
	}

	var report Report
	for _, spec := range l.Stores {
		sr, err := bootstrapStore(ctx, dataDir, l, spec, opts)
		if err != nil {
			return report, err
		}
		report.Stores = append(report.Stores, sr)
	}
	return report, nil
}

func bootstrapStore(ctx context.Context, dataDir string, l *Layout, spec Store, opts []store.Option) (StoreReport, error) {
	path, err := l.Path(dataDir, spec.Name)
	if err != nil {
		return StoreReport{}, err
	}
	sr := StoreReport{Name: spec.Name, Path: path, Created: []string{}, Existing: []string{}}

	opts = append([]store.Option{store.WithName(spec.Name)}, opts...)
	s, err := store.Open(path, opts...)
	if err != nil {
		return StoreReport{}, fmt.Errorf("open store %q: %w", spec.Name, err)
	}
	defer s.Close()

	err = s.WithTx(ctx, func(tx *store.Store) error {
		for _, table := range spec.Tables {
			exists, err := tx.TableExists(ctx, table.Name)
			if err != nil {
				return err
			}
			if exists {
				sr.Existing = append(sr.Existing, table.Name)
				continue
			}
			if err := tx.CreateTable(ctx, table.Name, table.Columns); err != nil {
				return err
			}
			sr.Created = append(sr.Created, table.Name)
		}
		return nil
	})
	if err != nil {
		return StoreReport{}, fmt.Errorf("bootstrap store %q: %w", spec.Name, err)
	}

	if len(sr.Created) > 0 {
		slog.Info("store bootstrapped", "store", spec.Name, "created", len(sr.Created))
	}
	return sr, nil
}
