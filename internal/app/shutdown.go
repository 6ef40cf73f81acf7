package app

import (
	"context"
	"errors"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
	"github.com/wuya51/gmic-buildathon/pkg/telemetry"
)

// Shutdown stops the server and background jobs, then closes the
// database. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	if a.state == "stopped" {
		return nil
	}
	a.state = "shutting_down"
	var errs []error

	if a.srvFast != nil {
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	if a.retentionCancel != nil {
		a.retentionCancel()
	}
	if a.sensor != nil {
		a.sensor.Stop()
	}
	a.api.Close()
	telemetry.Close()

	if err := a.db.Close(); err != nil {
		logger.Error("db_close_failed", "error", err)
		errs = append(errs, err)
	}
	a.state = "stopped"
	logger.Info("shutdown_complete")
	return errors.Join(errs...)
}
