package tasks

import (
	"text2phenotype.com/ner/redis"
)

type DocumentTask struct {
	FailedTasks  []string            `json:"failed_tasks"`
	FailedChunks map[string][]string `json:"failed_chunks"`
}

type DocumentTaskCached struct {
	DocInfo     map[string]interface{} `json:"document_info"`
	FailedTasks []string               `json:"failed_tasks"`
	JobID       string                 `json:"job_id"`
	WorkType    string                 `json:"work_type"`
}

type DocumentTasks struct {
	client redis.Client
}

func (tasks DocumentTasks) Get(redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DocumentTasks) GetCached(redisKey string) (*DocumentTaskCached, error) {
	var task DocumentTaskCached
	err := tasks.client.GetDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update changes the document and copies its failed tasks to the cached properties,
// both under the document lock.
func (tasks DocumentTasks) Update(redisKey string, updateFunc func(task *DocumentTask)) (err error) {
	releaseLock, err := tasks.client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	var task DocumentTask
	err = tasks.client.MergeDocument(redisKey, &task, func() {
		if task.FailedChunks == nil {
			task.FailedChunks = make(map[string][]string)
		}
		updateFunc(&task)
	})
	if err != nil {
		return err
	}

	var cached DocumentTaskCached
	return tasks.client.MergeDocument(cachedPropertiesKey(redisKey), &cached, func() {
		cached.FailedTasks = task.FailedTasks
	})
}
