package worker

import (
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/tasks"
	"text2phenotype.com/ner/types"
	"encoding/json"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	pipelineMockConfig
}

type mockedClients struct {
	redis    *redisMock
	rmq      *rmqMock
	s3       *s3Mock
	pipeline *pipelineMock
}

type methodsCalls struct {
	redis    redisMockCalls
	rmq      rmqMockCalls
	s3       s3MockCalls
	pipeline pipelineCall
}

func configureWorker(config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	pplnMock := getPipelineMock(config.pipelineMockConfig)

	workerLogger := logger.NewLogger("Test Worker")

	return &Worker{
			config:       Config{3},
			redis:        redis,
			s3:           s3,
			rmq:          rmq,
			workerLogger: &workerLogger,
			ppln:         pplnMock.ppln,
		}, &mockedClients{
			redis:    redis,
			rmq:      rmq,
			s3:       s3,
			pipeline: pplnMock,
		}
}

func processMessage(config mockedClientsConfig) *mockedClients {
	worker, mocks := configureWorker(config)
	worker.processMessage(&amqp.Delivery{
		Body: []byte(`{"work_type": "document", "redis_key": "chunk-1", "sender": "sequencer"}`),
	})
	return mocks
}

func chunkWithStatus(info tasks.ChunkTaskInfo) withValue {
	return withValue{
		returnedValue: tasks.ChunkTask{
			DocID:        "doc-1",
			TaskStatuses: tasks.ChunkTaskStatuses{Tagger: info},
		},
	}
}

var (
	completed = redisMockCalls{getChunkTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true}
	failed    = redisMockCalls{getChunkTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true}
	acked     = rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true}
	rejected  = rmqMockCalls{rejectDelivery: true}
	roundTrip = s3MockCalls{downloadText: true, uploadTags: true}
)

func TestWorker(t *testing.T) {
	testCases := []struct {
		name     string
		config   mockedClientsConfig
		expected methodsCalls
	}{
		{
			name:     "Successful",
			expected: methodsCalls{redis: completed, rmq: acked, s3: roundTrip, pipeline: pipelineCall{true}},
		},
		{
			name: "Successful with job_task.stop_docs_on_failure == True",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getJobTask: withValue{returnedValue: tasks.JobTask{StopDocumentsOnFailure: true}},
				},
			},
			expected: methodsCalls{
				redis: redisMockCalls{
					getChunkTask: true, getJobTask: true, getDocTask: true, onTaskStarted: true, onTaskComplete: true,
				},
				rmq:      acked,
				s3:       roundTrip,
				pipeline: pipelineCall{true},
			},
		},
		{
			name: "Failed to get Chunk task",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{getChunkTask: withValue{fail: true}},
			},
			expected: methodsCalls{redis: redisMockCalls{getChunkTask: true}, rmq: rejected},
		},
		{
			name: "Failed to get Job task",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
			},
			expected: methodsCalls{redis: redisMockCalls{getChunkTask: true, getJobTask: true}, rmq: rejected},
		},
		{
			name: "Failed to get Doc task",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getJobTask: withValue{returnedValue: tasks.JobTask{StopDocumentsOnFailure: true}},
					getDocTask: withValue{fail: true},
				},
			},
			expected: methodsCalls{
				redis: redisMockCalls{getChunkTask: true, getJobTask: true, getDocTask: true},
				rmq:   rejected,
			},
		},
		{
			name: "Already complete with success",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getChunkTask: chunkWithStatus(tasks.ChunkTaskInfo{Status: tasks.TaskStatusCompletedSuccess}),
				},
			},
			expected: methodsCalls{redis: redisMockCalls{getChunkTask: true}, rmq: acked},
		},
		{
			name: "Already complete with failure",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getChunkTask: chunkWithStatus(tasks.ChunkTaskInfo{Status: tasks.TaskStatusCompletedFailure}),
				},
			},
			expected: methodsCalls{redis: redisMockCalls{getChunkTask: true}, rmq: acked},
		},
		{
			name: "User cancelled",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
				},
			},
			expected: methodsCalls{
				redis: redisMockCalls{getChunkTask: true, getJobTask: true, onTaskCancelled: true},
				rmq:   acked,
			},
		},
		{
			name: "Exceeded attempts",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getChunkTask: chunkWithStatus(tasks.ChunkTaskInfo{Attempts: 3}),
				},
			},
			expected: methodsCalls{
				redis: redisMockCalls{getChunkTask: true, getJobTask: true, onTaskExceededRetries: true},
				rmq:   acked,
			},
		},
		{
			name: "Cancelled because other worker already failed",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{
					getJobTask: withValue{returnedValue: tasks.JobTask{StopDocumentsOnFailure: true}},
					getDocTask: withValue{returnedValue: tasks.DocumentTaskCached{FailedTasks: []string{"some other task"}}},
				},
			},
			expected: methodsCalls{
				redis: redisMockCalls{getChunkTask: true, getJobTask: true, getDocTask: true, onTaskCancelled: true},
				rmq:   acked,
			},
		},
		{
			name: "Failed to update task in onTaskStarted",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
			},
			expected: methodsCalls{
				redis: redisMockCalls{getChunkTask: true, getJobTask: true, onTaskStarted: true},
				rmq:   rejected,
			},
		},
		{
			name: "Failed to load data from S3",
			config: mockedClientsConfig{
				s3MockConfig: s3MockConfig{downloadText: withValue{fail: true}},
			},
			expected: methodsCalls{redis: failed, rmq: acked, s3: s3MockCalls{downloadText: true}},
		},
		{
			name: "Failed due to pipeline error",
			config: mockedClientsConfig{
				pipelineMockConfig: pipelineMockConfig{fail: true},
			},
			expected: methodsCalls{
				redis:    failed,
				rmq:      acked,
				s3:       s3MockCalls{downloadText: true},
				pipeline: pipelineCall{true},
			},
		},
		{
			name: "Failed to update task in onTaskFailedWithError",
			config: mockedClientsConfig{
				pipelineMockConfig: pipelineMockConfig{fail: true},
				redisMockConfig:    redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
			},
			expected: methodsCalls{
				redis:    failed,
				rmq:      rejected,
				s3:       s3MockCalls{downloadText: true},
				pipeline: pipelineCall{true},
			},
		},
		{
			name: "Failed to update task in onTaskComplete",
			config: mockedClientsConfig{
				redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
			},
			expected: methodsCalls{redis: completed, rmq: rejected, s3: roundTrip, pipeline: pipelineCall{true}},
		},
		{
			name: "Failed to save result to S3",
			config: mockedClientsConfig{
				s3MockConfig: s3MockConfig{uploadTags: failingMethod{fail: true}},
			},
			expected: methodsCalls{redis: failed, rmq: acked, s3: roundTrip, pipeline: pipelineCall{true}},
		},
		{
			name: "Failed to acknowledge delivery",
			config: mockedClientsConfig{
				rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
			},
			expected: methodsCalls{redis: completed, rmq: acked, s3: roundTrip, pipeline: pipelineCall{true}},
		},
		{
			name: "Failed to ping sequencer",
			config: mockedClientsConfig{
				rmqMockConfig: rmqMockConfig{pingSequencer: failingMethod{fail: true}},
			},
			expected: methodsCalls{
				redis:    completed,
				rmq:      rmqMockCalls{pingSequencer: true, rejectDelivery: true},
				s3:       roundTrip,
				pipeline: pipelineCall{true},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, calls(processMessage(tc.config)))
		})
	}
}

func TestWorkerRejectsMalformedMessage(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	worker.processMessage(&amqp.Delivery{Body: []byte("not json")})

	require.Equal(t, rmqMockCalls{rejectDelivery: true}, mocks.rmq.calls)
	require.False(t, mocks.redis.calls.getChunkTask)
}

const trainingCorpus = `Peter I-PER
went O
to O
Paris I-LOC

Mary I-PER
went O
to O
London I-LOC

`

func TestWorkerSavesTags(t *testing.T) {
	model, err := pipeline.TrainModel(strings.NewReader(trainingCorpus), 3, 1)
	require.NoError(t, err)

	countsFile := filepath.Join(t.TempDir(), "ner.counts")
	f, err := os.Create(countsFile)
	require.NoError(t, err)
	require.NoError(t, model.WriteCounts(f))
	require.NoError(t, f.Close())

	cfg := types.Configuration{Name: "conll", CountsFile: countsFile, Decoding: types.DecodingArgmax, RareThreshold: 1}
	ppln, err := pipeline.NewTaggingPipeline(pipeline.TaggingParams{Configurations: []types.Configuration{cfg}}, nil)
	require.NoError(t, err)

	mocks := processMessage(mockedClientsConfig{
		redisMockConfig:    redisMockConfig{getChunkTask: chunkWithStatus(tasks.ChunkTaskInfo{})},
		pipelineMockConfig: pipelineMockConfig{inner: ppln},
	})
	require.Equal(t, methodsCalls{redis: completed, rmq: acked, s3: roundTrip, pipeline: pipelineCall{true}}, calls(mocks))
	require.Equal(t, "processed/documents/doc-1/chunks/chunk-1/chunk-1.ner_tags.json", mocks.s3.state.savedKey)

	var response map[string]pipeline.TaggingResponse
	require.NoError(t, json.Unmarshal([]byte(mocks.s3.state.savedResult), &response))
	require.Contains(t, response, "conll")
	require.Equal(t, "chunk-1", response["conll"].Tid)
	require.Len(t, response["conll"].Sentences, 1)

	lines := strings.Split(strings.TrimSpace(response["conll"].Output), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "Peter I-PER "), lines[0])
	require.True(t, strings.HasPrefix(lines[3], "Paris I-LOC "), lines[3])
}

func calls(mocks *mockedClients) methodsCalls {
	return methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
}
