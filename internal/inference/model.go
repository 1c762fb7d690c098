// Package inference provides the two inference client variants: direct model
// invocation through the Bedrock runtime and workflow-endpoint invocation
// over HTTP. Both convert every failure into an error-annotated record so a
// bad record never aborts its batch.
package inference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
)

// ModelAPI is the slice of the Bedrock runtime client used by ModelClient.
type ModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ModelClient invokes a model directly. The underlying SDK client is
// read-only after construction and shared freely across workers.
type ModelClient struct {
	API     ModelAPI
	ModelID string
	Logger  *zap.Logger
}

// NewModelClient builds a Bedrock-backed model client from the model variant
// configuration. Explicit access keys override the ambient credential chain.
func NewModelClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (*ModelClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &ModelClient{
		API:     bedrockruntime.NewFromConfig(awsCfg),
		ModelID: cfg.ID,
		Logger:  logger,
	}, nil
}

// Call invokes the model for one record. Extraction, serialization, the
// remote call, and response decoding can each fail; all of those come back
// as an error-annotated record with a nil error return.
func (c *ModelClient) Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
	id := rec.ID()

	input, ok := rec.ModelInput()
	if !ok {
		return core.AnnotateError(map[string]any{}, fmt.Errorf("record has no %s field", core.FieldModelInput), id), nil
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return core.AnnotateError(input, fmt.Errorf("encode %s: %w", core.FieldModelInput, err), id), nil
	}

	out, err := c.API.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		c.logWarn("model invocation failed", id, err)
		return core.AnnotateError(input, err, id), nil
	}

	var body map[string]any
	if err := json.Unmarshal(out.Body, &body); err != nil {
		c.logWarn("model response decode failed", id, err)
		return core.AnnotateError(input, fmt.Errorf("decode model response: %w", err), id), nil
	}

	return core.Annotate(input, body, id), nil
}

func (c *ModelClient) logWarn(msg, recordID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn(msg, zap.String("record_id", recordID), zap.Error(err))
}
