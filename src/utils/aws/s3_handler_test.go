package aws_handler_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"pantry-server/src/config"
	aws_handler "pantry-server/src/utils/aws"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorageUpload(t *testing.T) {
	svc := &fakeS3{}
	storage := aws_handler.NewS3Storage(svc, config.StorageConfig{
		Endpoint: "https://s3.us-west-000.backblazeb2.com/",
		Bucket:   "pantry-images",
	})

	err := storage.Upload(context.Background(), "abc.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "pantry-images", aws.StringValue(svc.input.Bucket))
	assert.Equal(t, "abc.png", aws.StringValue(svc.input.Key))
	assert.Equal(t, "image/png", aws.StringValue(svc.input.ContentType))
	assert.Equal(t, int64(9), aws.Int64Value(svc.input.ContentLength))
	assert.Equal(t, []byte("png-bytes"), svc.body)
}

func TestS3StorageUploadError(t *testing.T) {
	storage := aws_handler.NewS3Storage(&fakeS3{err: errors.New("access denied")}, config.StorageConfig{Bucket: "b"})

	err := storage.Upload(context.Background(), "abc.png", "image/png", []byte("x"))
	assert.ErrorContains(t, err, "access denied")
}

func TestS3StoragePublicURL(t *testing.T) {
	storage := aws_handler.NewS3Storage(&fakeS3{}, config.StorageConfig{
		Endpoint: "https://s3.us-west-000.backblazeb2.com/",
		Bucket:   "pantry-images",
	})
	assert.Equal(t, "https://s3.us-west-000.backblazeb2.com/pantry-images/abc.png", storage.PublicURL("abc.png"))

	storage = aws_handler.NewS3Storage(&fakeS3{}, config.StorageConfig{
		Endpoint:      "https://s3.us-west-000.backblazeb2.com",
		Bucket:        "pantry-images",
		PublicBaseURL: "https://cdn.example.com/",
	})
	assert.Equal(t, "https://cdn.example.com/abc.png", storage.PublicURL("abc.png"))
}

type fakeSecrets struct {
	secretsmanageriface.SecretsManagerAPI
	value *string
}

func (f *fakeSecrets) GetSecretValueWithContext(_ aws.Context, input *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if aws.StringValue(input.SecretId) != "prod/pantry/jwt" {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestSecretManagerGetSecretValue(t *testing.T) {
	manager := aws_handler.NewSecretManager(&fakeSecrets{value: aws.String("jwt-secret")})

	value, err := manager.GetSecretValue(context.Background(), "prod/pantry/jwt")
	require.NoError(t, err)
	assert.Equal(t, "jwt-secret", value)

	_, err = manager.GetSecretValue(context.Background(), "other")
	assert.Error(t, err)

	_, err = aws_handler.NewSecretManager(&fakeSecrets{}).GetSecretValue(context.Background(), "prod/pantry/jwt")
	assert.Error(t, err)
}

func TestNewAWSHandler(t *testing.T) {
	handler, err := aws_handler.NewAWSHandler(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, handler.ObjectStorage)
	assert.Nil(t, handler.SecretManager)

	_, err = aws_handler.NewAWSHandler(&config.Config{Storage: config.StorageConfig{Bucket: "b"}})
	assert.Error(t, err, "a bucket without endpoint is rejected")

	handler, err = aws_handler.NewAWSHandler(&config.Config{Storage: config.StorageConfig{
		Bucket:   "b",
		Endpoint: "https://s3.us-west-000.backblazeb2.com",
		Region:   "us-west-000",
	}})
	require.NoError(t, err)
	assert.NotNil(t, handler.ObjectStorage)
}
