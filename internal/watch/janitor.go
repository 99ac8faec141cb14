package watch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/workspace"
)

// sweepConcurrency bounds parallel removals so a janitor pass over many
// leftovers does not saturate the disk.
const sweepConcurrency = 4

// Sweep removes ephemeral workspaces under baseDir older than maxAge,
// leftovers from processes that died before their exit cleanup ran. Returns
// the number of workspaces removed.
func Sweep(ctx context.Context, baseDir string, maxAge time.Duration) (int, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	stale, err := workspace.StaleWorkspaces(baseDir, maxAge)
	if err != nil {
		return 0, errors.CleanupFailed(baseDir, err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, dir := range stale {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return errors.CleanupFailed(dir, err)
			}
			slog.Info("Swept stale workspace", logfields.Workspace(dir))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return len(stale), err
	}
	return len(stale), nil
}
