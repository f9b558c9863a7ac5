package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/imamik/orchestrator/internal/resource"
)

// Kind tags the provider variant.
type Kind string

const (
	// AWS is Amazon Web Services.
	AWS Kind = "aws"
	// GCP is Google Cloud. No resource kinds are implemented for it yet.
	GCP Kind = "gcp"
)

// Provider is a variant-tagged, authenticated cloud handle.
// It is shared, read-only, by every resource built during a run.
type Provider struct {
	kind      Kind
	awsConfig aws.Config
	projectID string
}

// NewAWSProvider wraps a loaded AWS SDK configuration.
func NewAWSProvider(cfg aws.Config) *Provider {
	return &Provider{kind: AWS, awsConfig: cfg}
}

// NewGCPProvider returns a GCP handle for the given project.
func NewGCPProvider(projectID string) *Provider {
	return &Provider{kind: GCP, projectID: projectID}
}

// Kind returns the provider variant.
func (p *Provider) Kind() Kind {
	if p == nil {
		return ""
	}
	return p.kind
}

// AWSConfig returns the AWS SDK configuration for building service clients.
// It fails with a *resource.ConfigurationError for any other variant; the
// requesting kind is recorded in the error.
func (p *Provider) AWSConfig(requestedBy resource.Type) (aws.Config, error) {
	if p == nil {
		return aws.Config{}, resource.Configurationf(requestedBy, "no cloud provider configured")
	}
	if p.kind != AWS {
		return aws.Config{}, resource.Configurationf(requestedBy, "mismatched cloud provider %q, need %q", p.kind, AWS)
	}
	return p.awsConfig, nil
}

// String implements fmt.Stringer without leaking credentials.
func (p *Provider) String() string {
	if p == nil {
		return "<nil>"
	}
	switch p.kind {
	case AWS:
		return fmt.Sprintf("aws(region=%s)", p.awsConfig.Region)
	case GCP:
		return fmt.Sprintf("gcp(project=%s)", p.projectID)
	}
	return string(p.kind)
}

// AWSOptions are the inputs for loading an AWS configuration.
// Empty credentials fall back to the default credential chain.
type AWSOptions struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// EndpointURL overrides every service endpoint, e.g. for LocalStack.
	EndpointURL string
}

// LoadAWS builds an AWS provider from options.
func LoadAWS(ctx context.Context, opts AWSOptions) (*Provider, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &resource.ConfigurationError{Reason: "failed to load AWS config", Err: err}
	}
	if opts.EndpointURL != "" {
		cfg.BaseEndpoint = aws.String(opts.EndpointURL)
	}

	return NewAWSProvider(cfg), nil
}
