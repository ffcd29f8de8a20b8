package aws_handler

import (
	"errors"
	"pantry-server/src/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

type AWSHandler struct {
	ObjectStorage *S3Storage
	// SecretManager is nil unless a JWT secret id is configured.
	SecretManager *SecretManager
}

func NewAWSHandler(cfg *config.Config) (*AWSHandler, error) {
	handler := &AWSHandler{}

	if cfg.Storage.Bucket != "" {
		storage, err := newS3Storage(cfg.Storage)
		if err != nil {
			return nil, err
		}
		handler.ObjectStorage = storage
	}

	if cfg.Auth.JWTSecretID != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWS.Region)},
		)
		if err != nil {
			return nil, err
		}
		handler.SecretManager = NewSecretManager(secretsmanager.New(sess))
	}

	return handler, nil
}

func newS3Storage(cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage.endpoint is not configured")
	}
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return NewS3Storage(s3.New(sess), cfg), nil
}
