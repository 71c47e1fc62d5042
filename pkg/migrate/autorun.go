package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
)

// MaybeRun brings the schema up to date at boot when the auto-migrate flag is enabled.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "ensuring schema (auto-migrate)")

	applied, err := EnsureSchema(ctx, client)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	logg.Info(logg.WithField(ctx, "applied", applied), "schema ready")
	return nil
}
