package dataset

import (
	"context"
	"log/slog"
	"sync"
)

// Loader produces the full recommendation table.
type Loader func(ctx context.Context) (*Table, error)

// Provider loads the table once and serves the cached result, including a
// load error, for the rest of its lifetime. The load ignores the first
// caller's cancellation.
type Provider struct {
	load  Loader
	once  sync.Once
	table *Table
	err   error
}

func NewProvider(load Loader) *Provider {
	return &Provider{load: load}
}

func (p *Provider) Table(ctx context.Context) (*Table, error) {
	p.once.Do(func() {
		p.table, p.err = p.load(context.WithoutCancel(ctx))
		if p.err != nil {
			slog.Error("DATASET: Load failed", "error", p.err)
			return
		}
		slog.Info("DATASET: Table loaded",
			"rows", p.table.Len(),
			"regions", len(p.table.Regions()),
			"conditions", len(p.table.Conditions()),
			"age_groups", len(p.table.AgeGroups()),
		)
	})
	return p.table, p.err
}
