package s3client

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStaticConfig(t *testing.T) {
	env := Environment{
		BucketName:  "tagger-models",
		Region:      "us-east-1",
		AwsEndpoint: "http://localstack:4566",
		AccessKeyID: "id",
		AccessKey:   "secret",
	}

	t.Run("Endpoint in dev", func(t *testing.T) {
		env := env
		env.T2PEnv = "dev"
		cfg, err := newClient(env).staticConfig()
		require.NoError(t, err)
		require.Equal(t, "http://localstack:4566", aws.StringValue(cfg.Endpoint))
		require.True(t, aws.BoolValue(cfg.S3ForcePathStyle))
		require.Equal(t, "us-east-1", aws.StringValue(cfg.Region))
		require.Equal(t, maxRetries, aws.IntValue(cfg.MaxRetries))
	})

	t.Run("No endpoint outside dev", func(t *testing.T) {
		env := env
		env.T2PEnv = "prod"
		cfg, err := newClient(env).staticConfig()
		require.NoError(t, err)
		require.Nil(t, cfg.Endpoint)
	})

	t.Run("Missing credentials", func(t *testing.T) {
		env := env
		env.AccessKeyID, env.AccessKey = "", ""
		_, err := newClient(env).staticConfig()
		require.Error(t, err)
	})
}

func TestRoleConfig(t *testing.T) {
	client := newClient(Environment{BucketName: "tagger-models", Region: "eu-west-1"})
	require.Equal(t, "tagger-models", client.Bucket())

	cfg, err := client.roleConfig()
	require.NoError(t, err)
	require.Equal(t, "eu-west-1", aws.StringValue(cfg.Region))
	require.Nil(t, cfg.Credentials)
}

func TestCloseDropsSession(t *testing.T) {
	client := newClient(Environment{BucketName: "tagger-models"})
	client.Close()
	require.Nil(t, client.sess)
}
