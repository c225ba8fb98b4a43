package telemetry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingProcessor struct {
	mu       sync.Mutex
	messages []string
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, r.Body().AsString())
	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }
func (p *recordingProcessor) Shutdown(context.Context) error                         { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error                       { return nil }

var _ sdklog.Processor = (*recordingProcessor)(nil)

func (p *recordingProcessor) got() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(context.Background()))
	assert.NoError(t, lp.Shutdown(context.Background()))

	core := telemetry.NewZapOTELCore("saldobirras", lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_FiltersByLevel(t *testing.T) {
	proc := &recordingProcessor{}
	lp := telemetry.NewLoggerProviderWithProcessor(proc)
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	logger := zap.New(telemetry.NewZapOTELCore("saldobirras", lp, zapcore.WarnLevel)).
		With(zap.String("tenant_id", "t-1"))
	logger.Info("recharge applied")
	logger.Warn("balance low")
	logger.Error("store unavailable")

	require.NoError(t, lp.ForceFlush(context.Background()))
	assert.Equal(t, []string{"balance low", "store unavailable"}, proc.got())
}
