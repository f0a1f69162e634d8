package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/spf13/cobra"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/shared/config"
	"legalassist-backend/internal/shared/metrics"
	"legalassist-backend/internal/shared/telemetry"
	"legalassist-backend/internal/workerproc"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued document feedback to the assistant backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("concurrency") {
				cfg.WorkerConcurrency = concurrency
			}
			return run(cfg)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Messages processed in parallel")
	return cmd
}

// Backoff applied between failed receives. It doubles per consecutive failure
// and resets after a successful receive.
var (
	receiveBackoffBase = time.Second
	receiveBackoffMax  = 30 * time.Second
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func run(cfg config.Config) error {
	queueURL := strings.TrimSpace(cfg.FeedbackQueueURL)
	if queueURL == "" {
		return errors.New("FEEDBACK_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	var client sqsAPI = sqs.NewFromConfig(awsCfg)

	sink, err := assistant.NewClient(assistant.Options{
		BaseURL: cfg.AssistantBaseURL,
		Token:   cfg.AssistantToken,
		Timeout: cfg.AssistantTimeout,
	})
	if err != nil {
		return fmt.Errorf("assistant client: %w", err)
	}

	poll(ctx, client, queueURL, sink, cfg)
	return nil
}

func poll(ctx context.Context, client sqsAPI, queueURL string, sink conversation.FeedbackSink, cfg config.Config) {
	sem := make(chan struct{}, max(1, cfg.WorkerConcurrency))
	var wg sync.WaitGroup
	var backoff time.Duration

	// In-flight deliveries outlive the poll context so a shutdown drains them;
	// each is bounded by the visibility timeout, after which SQS redelivers.
	handleCtx := context.WithoutCancel(ctx)
	handleTimeout := time.Duration(max(1, cfg.VisibilitySeconds)) * time.Second

	telemetry.Info("worker.started", map[string]any{
		"queue":       queueURL,
		"concurrency": cfg.WorkerConcurrency,
		"visibility":  cfg.VisibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(cfg.VisibilitySeconds),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			backoff = nextBackoff(backoff)
			telemetry.Error("worker.receive_failed", map[string]any{
				"error":    err.Error(),
				"retry_in": backoff.String(),
			})
			select {
			case <-ctx.Done():
				break pollLoop
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				msgCtx, cancel := context.WithTimeout(handleCtx, handleTimeout)
				defer cancel()
				handleMessage(msgCtx, client, queueURL, sink, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(cfg.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	if cur <= 0 {
		return receiveBackoffBase
	}
	return min(cur*2, receiveBackoffMax)
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, sink conversation.FeedbackSink, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", "")
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.feedback.unparseable", fields)
		if deleteMessage(ctx, client, queueURL, msg) {
			metrics.IncFeedback("dropped")
		}
		return
	}

	fields := baseFields(msg, decoded.EventID, decoded.Feedback.DocumentID)
	if err := workerproc.Deliver(ctx, sink, decoded); err != nil {
		fields["error"] = err.Error()
		if workerproc.Retryable(err) {
			telemetry.Error("worker.feedback.failed", fields)
			metrics.IncFeedback("failed")
			return
		}
		telemetry.Error("worker.feedback.rejected", fields)
		if deleteMessage(ctx, client, queueURL, msg) {
			metrics.IncFeedback("dropped")
		}
		return
	}

	if deleteMessage(ctx, client, queueURL, msg) {
		telemetry.Info("worker.feedback.delivered", fields)
		metrics.IncFeedback("delivered")
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, "", "")
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.feedback.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, "", "")
		fields["error"] = err.Error()
		telemetry.Error("worker.feedback.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, eventID, documentID string) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if eventID != "" {
		fields["event_id"] = eventID
	}
	if documentID != "" {
		fields["document_id"] = documentID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
