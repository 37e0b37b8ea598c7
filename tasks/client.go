package tasks

import (
	"text2phenotype.com/ner/redis"
	"fmt"
)

// Task documents are shared with the other pipeline services, one database per kind.
const (
	DocumentsDB redis.DB = 0
	JobsDB      redis.DB = 1
	ChunksDB    redis.DB = 2
)

type Client struct {
	Documents DocumentTasks
	Chunks    ChunkTasks
	Jobs      JobTasks
}

func NewClient() (Client, error) {
	var opened []redis.Client
	open := func(db redis.DB) (redis.Client, error) {
		client, err := redis.NewClient(db)
		if err != nil {
			for _, c := range opened {
				_ = c.Close()
			}
			return client, fmt.Errorf("redis db %d: %w", db, err)
		}
		opened = append(opened, client)
		return client, nil
	}

	var tasks Client
	var err error
	if tasks.Documents.client, err = open(DocumentsDB); err != nil {
		return Client{}, err
	}
	if tasks.Jobs.client, err = open(JobsDB); err != nil {
		return Client{}, err
	}
	if tasks.Chunks.client, err = open(ChunksDB); err != nil {
		return Client{}, err
	}
	return tasks, nil
}

func (client *Client) Close() {
	_ = client.Chunks.client.Close()
	_ = client.Documents.client.Close()
	_ = client.Jobs.client.Close()
}

// JobTask holds the job settings the tagger checks before working on a chunk.
type JobTask struct {
	UserCanceled           bool `json:"user_canceled"`
	StopDocumentsOnFailure bool `json:"stop_documents_on_failure"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(jobID string) (*JobTask, error) {
	var job JobTask
	if err := tasks.client.GetDocument(cachedPropertiesKey(jobID), &job); err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return &job, nil
}

// cachedPropertiesKey is where services keep the read-mostly copy of a document.
func cachedPropertiesKey(redisKey string) string {
	return redisKey + "-cached-properties"
}
