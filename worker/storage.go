package worker

import (
	"text2phenotype.com/ner/s3client"
)

// storageTransactions moves chunk texts in and tag results out of the object store.
type storageTransactions interface {
	downloadText(task *Task) ([]byte, error)
	uploadTags(task *Task, result string) error
	close()
}

type storageClientWrapper struct {
	client *s3client.Client
}

func (wrapper *storageClientWrapper) downloadText(task *Task) ([]byte, error) {
	return wrapper.client.Download(task.chunkTask.TextFileKey)
}

func (wrapper *storageClientWrapper) uploadTags(task *Task, result string) error {
	return wrapper.client.Upload(result, getResultsFileKey(task))
}

func (wrapper *storageClientWrapper) close() {
	wrapper.client.Close()
}
