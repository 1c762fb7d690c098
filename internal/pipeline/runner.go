package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
	"github.com/inferbatch/inferbatch/internal/core/engine"
	"github.com/inferbatch/inferbatch/internal/inference"
	"github.com/inferbatch/inferbatch/internal/storage"
)

// Runner assembles and executes a full pipeline from a validated Config. It
// is reused by the run command, the ad-hoc invoke command, and the job
// server.
type Runner struct {
	Logger *zap.Logger
}

// Run validates cfg, wires the engine, and executes the batch.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*core.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	caller, err := BuildCaller(ctx, cfg, r.Logger)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(ctx)
	if err != nil {
		return nil, err
	}

	driver := &Driver{
		Store: store,
		Dispatcher: &engine.Dispatcher{
			Caller:  caller,
			Workers: cfg.MaxWorkers,
		},
		Logger: r.Logger,
	}

	return driver.Run(ctx, cfg.Inputs, cfg.OutputRoot)
}

// BuildCaller constructs the configured inference variant behind the shared
// rate gate. Every outbound call passes the limiter before reaching the
// endpoint.
func BuildCaller(ctx context.Context, cfg *config.Config, logger *zap.Logger) (engine.Caller, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, err
	}

	limiter, err := engine.NewLimiter(cfg.RPM, engine.DefaultWindow)
	if err != nil {
		return nil, err
	}

	var client engine.Caller
	switch variant {
	case config.VariantModel:
		client, err = inference.NewModelClient(ctx, cfg.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("build model client: %w", err)
		}
	case config.VariantWorkflow:
		client = inference.NewWorkflowClient(cfg.Workflow, logger)
	default:
		return nil, fmt.Errorf("unknown inference variant %q", variant)
	}

	return engine.Guarded(limiter, client), nil
}

// NewStore builds the storage router used for inputs and outputs.
func NewStore(ctx context.Context) (storage.Store, error) {
	s3Store, err := storage.NewS3Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("build s3 store: %w", err)
	}
	return &storage.Router{S3: s3Store, Local: storage.LocalStore{}}, nil
}
