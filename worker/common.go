package worker

import (
	"fmt"
	"path"
	"time"
)

// TaskName identifies this worker in task statuses, failed task lists and sequencer
// messages.
const TaskName = "ner_tagger"

func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"documents",
		task.chunkTask.DocID,
		"chunks",
		task.redisKey,
		fmt.Sprintf("%s.ner_tags.json", task.redisKey),
	)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
