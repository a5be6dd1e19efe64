// workflows/extraction_processor.go
package workflows

import (
	"context"
	"fmt"

	"github.com/answerlens/answerlens-workflows/services"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
)

// ExtractionRequestedEvent defines the data we expect from the API event.
type ExtractionRequestedEvent struct {
	BatchSize   int    `json:"batch_size"`
	TriggeredBy string `json:"triggered_by"`
}

type ExtractionProcessor struct {
	batchRunner services.BatchRunnerService
	client      inngestgo.Client
}

func NewExtractionProcessor(batchRunner services.BatchRunnerService) *ExtractionProcessor {
	return &ExtractionProcessor{
		batchRunner: batchRunner,
	}
}

func (p *ExtractionProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// ProcessAnswerPositions runs one extraction batch whenever the API asks for
// it. The batch runner is idempotent, so Inngest retries are safe.
func (p *ExtractionProcessor) ProcessAnswerPositions() inngestgo.ServableFunction {
	fn, _ := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-answer-positions",
			Name:    "Extract Brand Positions from Collected Answers",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger("api/answers.extraction.requested", nil),
		func(ctx context.Context, input inngestgo.Input[ExtractionRequestedEvent]) (any, error) {
			batchSize := input.Event.Data.BatchSize
			fmt.Printf("[ProcessAnswerPositions] Starting extraction batch (size=%d, triggered_by=%s)\n",
				batchSize, input.Event.Data.TriggeredBy)

			output, err := p.runBatchStep(ctx, batchSize)
			if err != nil {
				return nil, fmt.Errorf("step 'run-extraction-batch' failed: %w", err)
			}

			fmt.Printf("[ProcessAnswerPositions] ✅ COMPLETED: extraction batch\n")
			return output, nil
		},
	)
	return fn
}

func (p *ExtractionProcessor) runBatchStep(ctx context.Context, batchSize int) (any, error) {
	output, err := step.Run(ctx, "run-extraction-batch", func(ctx context.Context) (interface{}, error) {
		summary, err := p.batchRunner.RunExtractionBatch(ctx, batchSize)
		if err != nil {
			if slackErr := ReportErrorToSlack(err); slackErr != nil {
				fmt.Printf("[runBatchStep] Failed to report error to Slack: %v\n", slackErr)
			}
			return nil, err
		}
		if summary.Failed > 0 {
			if slackErr := ReportBatchFailuresToSlack(summary.Selected, summary.Processed, summary.Failed); slackErr != nil {
				fmt.Printf("[runBatchStep] Failed to report batch failures to Slack: %v\n", slackErr)
			}
		}
		failures := make([]string, 0, len(summary.Failures))
		for _, failure := range summary.Failures {
			failures = append(failures, fmt.Sprintf("%s: %s", failure.AnswerRunID, failure.Reason))
		}
		return map[string]interface{}{
			"selected":  summary.Selected,
			"processed": summary.Processed,
			"failed":    summary.Failed,
			"failures":  failures,
			"cost":      summary.TotalCost,
			"duration":  summary.Duration.String(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}
