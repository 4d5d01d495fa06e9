package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"youtube-card/domain/model"
	ytpubsub "youtube-card/infrastructure/pubsub"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func doneJob() *model.RenderJob {
	at := time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)
	job := model.NewRenderJob("r-1", "bucket-a", "youtube-video-card", "Mon titre", at)
	_ = job.Apply(model.RenderSnapshot{Done: true, OutputURL: "https://cdn/out.webm", OutputSize: 2048}, at)
	return job
}

func TestPublishRenderEvent(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := ytpubsub.NewPubSub(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	defer client.Close()

	publisher := ytpubsub.NewRenderEventPublisher(client, "render-events")
	require.NoError(t, publisher.PublishRenderEvent(ctx, doneJob()))

	messages := srv.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "done", messages[0].Attributes["status"])

	var event model.RenderEvent
	require.NoError(t, json.Unmarshal(messages[0].Data, &event))
	assert.Equal(t, "render.done", event.Type)
	assert.Equal(t, "https://cdn/out.webm", event.URL)
	assert.Equal(t, int64(2048), event.Size)
}

func TestPublishWithoutClientIsNoop(t *testing.T) {
	publisher := ytpubsub.NewRenderEventPublisher(nil, "render-events")
	assert.NoError(t, publisher.PublishRenderEvent(context.Background(), doneJob()))
}

func TestNewPubSubRequiresProject(t *testing.T) {
	_, err := ytpubsub.NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
