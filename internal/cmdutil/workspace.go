package cmdutil

import (
	"context"

	"github.com/slfconversion/bpmigrate/internal/config"
	"github.com/slfconversion/bpmigrate/internal/host/dna"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// OpenWorkspace opens the resolved DNA workspace, behind a spinner on a TTY.
func OpenWorkspace(ctx context.Context, rc *config.ResolvedConfig, dryRun bool) (*dna.Workspace, error) {
	opts := []dna.Option{
		dna.WithLogger(output.Logger().WithPrefix("host")),
		dna.WithClassSuffix(rc.ClassSuffix.Value),
		dna.WithDryRun(dryRun),
	}
	if rc.NativeCatalog.Value != "" {
		opts = append(opts, dna.WithCatalogFile(rc.NativeCatalog.Value))
	}

	var w *dna.Workspace
	err := output.RunWithSpinner(ctx, func() error {
		var err error
		w, err = dna.Open(rc.Workspace.Value, opts...)
		return err
	}, output.WithTitle("Loading workspace "+rc.Workspace.Value))
	if err != nil {
		return nil, err
	}

	output.Debug("workspace loaded", "dir", w.Dir(), "assets", len(w.Assets()))
	return w, nil
}

// LoadPlans loads and validates every plan file in order.
func LoadPlans(paths []string) ([]*plan.Plan, error) {
	loader, err := plan.NewLoader()
	if err != nil {
		return nil, err
	}
	plans, err := loader.LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	output.Debug("plans loaded", "files", len(paths), "plans", len(plans))
	return plans, nil
}
