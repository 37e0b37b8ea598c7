package s3client

import (
	"text2phenotype.com/ner/logger"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"strings"
	"sync"
)

const maxRetries = 4

var errNoSession = errors.New("could not open storage session")

type Environment struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

// Client reads and writes the objects of one bucket: chunk texts and tag results for
// the worker, counts files for remote tagger configurations. The session is opened
// lazily and rebuilt once when a request fails.
type Client struct {
	env       Environment
	mu        sync.Mutex
	sess      *session.Session
	logger    zerolog.Logger
	sdkLogger zerolog.Logger
}

func New() (*Client, error) {
	var env Environment
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read storage environment: %w", err)
	}
	client := newClient(env)
	if _, err := client.session(false); err != nil {
		return nil, err
	}
	return client, nil
}

func newClient(env Environment) *Client {
	return &Client{
		env:       env,
		logger:    logger.NewLogger("Storage").With().Str("bucket", env.BucketName).Logger(),
		sdkLogger: logger.NewLogger("Storage SDK").With().Str("bucket", env.BucketName).Logger(),
	}
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Upload(data string, key string) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
		Body:   strings.NewReader(data),
	}
	return client.withSession(key, func(sess *session.Session) error {
		_, err := s3manager.NewUploader(sess).Upload(input)
		return err
	})
}

// Download returns the content of key.
func (client *Client) Download(key string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	}
	var content []byte
	err := client.withSession(key, func(sess *session.Session) error {
		buf := aws.NewWriteAtBuffer([]byte{})
		size, err := s3manager.NewDownloader(sess).Download(buf, input)
		if err != nil {
			return err
		}
		client.logger.Debug().Str("key", key).Int64("size", size).Msg("Downloaded object")
		content = buf.Bytes()
		return nil
	})
	return content, err
}

// Close drops the session; the next request opens a new one.
func (client *Client) Close() {
	client.mu.Lock()
	client.sess = nil
	client.mu.Unlock()
}

func (client *Client) withSession(key string, request func(sess *session.Session) error) error {
	sess, err := client.session(false)
	if err != nil {
		return err
	}
	sess = sess.Copy(client.sdkConfig(key))
	if err = request(sess); err == nil {
		return nil
	}

	client.logger.Warn().Err(err).Str("key", key).Msg("Storage request failed, refreshing session")
	sess, refreshErr := client.session(true)
	if refreshErr != nil {
		return fmt.Errorf("%v (session refresh: %w)", err, refreshErr)
	}
	return request(sess.Copy(client.sdkConfig(key)))
}

func (client *Client) session(refresh bool) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess != nil && !refresh {
		return client.sess, nil
	}
	client.sess = nil
	sess, err := client.openSession()
	if err != nil {
		return nil, err
	}
	client.sess = sess
	return sess, nil
}

// openSession tries the instance role first, then the static credentials of the
// environment.
func (client *Client) openSession() (*session.Session, error) {
	sources := []struct {
		name   string
		config func() (*aws.Config, error)
	}{
		{"instance role", client.roleConfig},
		{"environment", client.staticConfig},
	}
	for _, source := range sources {
		cfg, err := source.config()
		if err != nil {
			client.logger.Info().Err(err).Str("credentials", source.name).Msg("Skipping storage credentials")
			continue
		}
		sess, err := session.NewSession(cfg)
		if err == nil {
			_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
		}
		if err != nil {
			client.logger.Info().Err(err).Str("credentials", source.name).Msg("Could not open storage session")
			continue
		}
		client.logger.Info().Str("credentials", source.name).Msg("Storage session opened")
		return sess, nil
	}
	client.logger.Error().Msg("No usable storage credentials")
	return nil, errNoSession
}

func (client *Client) roleConfig() (*aws.Config, error) {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(maxRetries), nil
}

func (client *Client) staticConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, err
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(maxRetries).
		WithCredentials(creds)
	// local stacks expose S3 under a custom endpoint
	if client.env.T2PEnv == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// sdkConfig routes aws-sdk-go debug lines to zerolog.
func (client *Client) sdkConfig(key string) *aws.Config {
	keyLogger := client.sdkLogger.With().Str("key", key).Logger()
	return aws.NewConfig().
		WithLogLevel(aws.LogDebug).
		WithLogger(aws.LoggerFunc(func(args ...interface{}) {
			keyLogger.Debug().Msg(fmt.Sprint(args...))
		}))
}
