package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

const contentTypeJSON = "application/json"

// MessageSender is the part of *azservicebus.Sender the publisher uses.
type MessageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// RenderEventPublisher implements IRenderEventPublisher over a Service Bus queue or topic.
type RenderEventPublisher struct {
	client *azservicebus.Client
	queue  string

	mu     sync.Mutex
	sender MessageSender
}

// NewRenderEventPublisher sends to queue, opening the sender on first use.
// A nil client gives a publisher that only logs.
func NewRenderEventPublisher(client *azservicebus.Client, queue string) *RenderEventPublisher {
	return &RenderEventPublisher{client: client, queue: queue}
}

// WithSender replaces the sender (fluent)
func (p *RenderEventPublisher) WithSender(sender MessageSender) *RenderEventPublisher {
	p.sender = sender
	return p
}

var _ repository.IRenderEventPublisher = (*RenderEventPublisher)(nil)

// NewRenderMessage builds the Service Bus message for a finished job.
func NewRenderMessage(job *model.RenderJob) (*azservicebus.Message, error) {
	body, err := json.Marshal(model.NewRenderEvent(job))
	if err != nil {
		return nil, err
	}
	contentType := contentTypeJSON
	messageID := job.BucketName + "/" + job.ID + "/" + string(job.Status)
	subject := "render." + string(job.Status)
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		MessageID:   &messageID,
		Subject:     &subject,
		ApplicationProperties: map[string]interface{}{
			"status":     string(job.Status),
			"bucketName": job.BucketName,
		},
	}, nil
}

func (p *RenderEventPublisher) PublishRenderEvent(ctx context.Context, job *model.RenderJob) error {
	message, err := NewRenderMessage(job)
	if err != nil {
		return err
	}

	sender, err := p.ensureSender()
	if err != nil {
		return err
	}
	if sender == nil {
		logger.GetLogger().WithField("renderId", job.ID).Debug("Service Bus disabled, render event not published")
		return nil
	}

	if err := sender.SendMessage(ctx, message, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return fmt.Errorf("send render event %s: %w", job.ID, err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"queue":    p.queue,
		"renderId": job.ID,
		"status":   job.Status,
	}).Info("Render event sent")
	return nil
}

func (p *RenderEventPublisher) ensureSender() (MessageSender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil || p.client == nil {
		return p.sender, nil
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return nil, fmt.Errorf("open sender %s: %w", p.queue, err)
	}
	p.sender = sender
	return sender, nil
}

// Stop closes the sender.
func (p *RenderEventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return
	}
	if err := p.sender.Close(context.Background()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
	}
	p.sender = nil
}
