package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/retry"
)

// Storage is the bucket resource.
type Storage struct {
	client *Client
	bucket string
	region string

	// teardownRetries bounds DeleteBucket retries while objects drain.
	teardownRetries int
	retryDelay      time.Duration
}

var _ resource.Resource[config.StorageArgs, string] = (*Storage)(nil)

// New builds a Storage resource. The provider must be AWS.
func New(p *cloud.Provider) (*Storage, error) {
	cfg, err := p.AWSConfig(resource.Storage)
	if err != nil {
		return nil, err
	}
	return newStorage(NewClient(cfg)), nil
}

func newStorage(c *Client) *Storage {
	return &Storage{client: c, teardownRetries: 5, retryDelay: 2 * time.Second}
}

// Bind sets the bucket teardown operates on without creating it.
func (s *Storage) Bind(args config.StorageArgs) {
	s.bucket = args.BucketName
	s.region = args.Region
}

// Bucket returns the bound bucket name.
func (s *Storage) Bucket() string { return s.bucket }

// Setup creates the bucket if it does not exist yet.
func (s *Storage) Setup(ctx context.Context, args config.StorageArgs) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Storage, "bucket", args.BucketName)
	s.Bind(args)

	exists, err := s.client.BucketExists(ctx, args.BucketName)
	if err != nil {
		return &resource.ProvisioningError{Kind: resource.Storage, Op: "check bucket", Name: args.BucketName, Err: err}
	}
	if exists {
		log.Info("bucket already exists")
		return nil
	}

	log.Info("creating bucket", "region", args.Region)
	if err := s.client.CreateBucket(ctx, args.BucketName, args.Region); err != nil {
		return &resource.ProvisioningError{Kind: resource.Storage, Op: "create bucket", Name: args.BucketName, Err: err}
	}
	log.Info("bucket created")
	return nil
}

// Check reports whether the bucket exists.
func (s *Storage) Check(ctx context.Context, bucketName string) (bool, error) {
	return s.client.BucketExists(ctx, bucketName)
}

// Teardown empties and deletes the bound bucket. A missing bucket is not an error.
func (s *Storage) Teardown(ctx context.Context) error {
	if s.bucket == "" {
		return resource.Configurationf(resource.Storage, "no bucket bound for teardown")
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Storage, "bucket", s.bucket)

	err := retry.WithExponentialBackoff(ctx, func() error {
		n, err := s.client.EmptyBucket(ctx, s.bucket)
		if err != nil {
			if isNotFoundError(err) {
				return nil
			}
			return retry.Fatal(err)
		}
		if n > 0 {
			log.Info("emptied bucket", "objects", n)
		}
		err = s.client.DeleteBucket(ctx, s.bucket)
		if err == nil || isNotFoundError(err) {
			return nil
		}
		if isBucketNotEmpty(err) {
			return err
		}
		return retry.Fatal(err)
	}, retry.WithMaxRetries(s.teardownRetries), retry.WithInitialDelay(s.retryDelay))
	if err != nil {
		return &resource.ProvisioningError{Kind: resource.Storage, Op: "delete bucket", Name: s.bucket, Err: err}
	}

	log.Info("bucket deleted")
	return nil
}

func (s *Storage) String() string {
	return fmt.Sprintf("storage(%s)", s.bucket)
}
