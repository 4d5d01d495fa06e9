package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"

	"github.com/redis/go-redis/v9"
)

// finishScript writes a terminal job only if the stored job has not finished yet.
//
// KEYS[1] render job
// ARGV    job JSON, ttl (ms), terminal statuses...
// returns 1 when written, 0 when another writer finished the job first
var finishScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  local ok, job = pcall(cjson.decode, current)
  if ok and type(job) == 'table' then
    for i = 3, #ARGV do
      if job.status == ARGV[i] then
        return 0
      end
    end
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

type renderJobStore struct {
	client redis.Cmdable
}

func NewRenderJobStore(client redis.Cmdable) repository.IRenderJobStore {
	return &renderJobStore{client: client}
}

func renderJobKey(bucketName, renderID string) string {
	return fmt.Sprintf("render:%s:%s", bucketName, renderID)
}

func (s *renderJobStore) Save(ctx context.Context, job *model.RenderJob, ttl time.Duration) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode render job: %w", err)
	}
	if err := s.client.Set(ctx, renderJobKey(job.BucketName, job.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save render job %s: %w", job.ID, err)
	}
	return nil
}

func (s *renderJobStore) Finish(ctx context.Context, job *model.RenderJob, ttl time.Duration) (bool, error) {
	if !job.Status.Terminal() {
		return false, fmt.Errorf("finish render %s: status %s is not terminal", job.ID, job.Status)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encode render job: %w", err)
	}
	written, err := finishScript.Run(ctx, s.client, []string{renderJobKey(job.BucketName, job.ID)},
		payload, ttl.Milliseconds(), string(model.RenderDone), string(model.RenderFailed)).Int()
	if err != nil {
		return false, fmt.Errorf("finish render job %s: %w", job.ID, err)
	}
	return written == 1, nil
}

// Get returns a NotFoundError for unknown or expired jobs.
func (s *renderJobStore) Get(ctx context.Context, bucketName, renderID string) (*model.RenderJob, error) {
	payload, err := s.client.Get(ctx, renderJobKey(bucketName, renderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &model.NotFoundError{Kind: model.ResourceRender, ID: renderID}
	}
	if err != nil {
		return nil, fmt.Errorf("load render job %s: %w", renderID, err)
	}
	var job model.RenderJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode render job %s: %w", renderID, err)
	}
	return &job, nil
}
