package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/logger"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoggerFor returns the request logger carried by ctx, falling back to base.
func LoggerFor(ctx context.Context, base *zap.Logger) *zap.Logger {
	if _, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); ok {
		return logger.L(ctx)
	}
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// ErrorCode extracts the domain error code, or STORE_UNAVAILABLE for anything else
func ErrorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return shared.CodeStoreUnavailable
}

// ObserveOutcome logs and counts the result of a ledger or order operation.
// Domain rejections are logged at warn; store failures at error.
func ObserveOutcome(ctx context.Context, log *zap.Logger, metrics *telemetry.LedgerMetrics, tenantID uuid.UUID, op string, started time.Time, err error) {
	metrics.RecordDuration(ctx, op, err == nil, time.Since(started))
	if err == nil {
		return
	}
	code := ErrorCode(err)
	metrics.RecordRejection(ctx, tenantID, op, code)

	var se *shared.StoreError
	if errors.As(err, &se) {
		log.Error("Ledger operation failed",
			zap.String("operation", op),
			zap.String("store_op", se.Op),
			zap.Error(se.Cause),
		)
		return
	}
	log.Warn("Ledger operation rejected",
		zap.String("operation", op),
		zap.String("code", code),
		zap.String("reason", err.Error()),
	)
}
