package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// RenderEventPublisher implements IRenderEventPublisher over a Pub/Sub topic.
type RenderEventPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

// NewRenderEventPublisher publishes to topicName, creating it on first use.
// A nil client gives a publisher that only logs.
func NewRenderEventPublisher(client *pubsub.Client, topicName string) *RenderEventPublisher {
	return &RenderEventPublisher{client: client, topicName: topicName}
}

var _ repository.IRenderEventPublisher = (*RenderEventPublisher)(nil)

func (p *RenderEventPublisher) PublishRenderEvent(ctx context.Context, job *model.RenderJob) error {
	payload, err := json.Marshal(model.NewRenderEvent(job))
	if err != nil {
		return err
	}
	if p.client == nil {
		logger.GetLogger().WithField("renderId", job.ID).Debug("Pub/Sub disabled, render event not published")
		return nil
	}

	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"status": string(job.Status), "bucketName": job.BucketName},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish render event %s: %w", job.ID, err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"server ID": serverID,
		"renderId":  job.ID,
		"status":    job.Status,
	}).Info("Render event published")
	return nil
}

func (p *RenderEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}

	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", p.topicName, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		topic, err = p.client.CreateTopic(ctx, p.topicName)
		if err != nil {
			return nil, fmt.Errorf("create topic %s: %w", p.topicName, err)
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes pending messages.
func (p *RenderEventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
