package bedrock

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type options struct {
	modelID string
	client  *bedrockruntime.Client

	region       string
	profile      string
	accessKey    string
	secretKey    string
	sessionToken string
	baseEndpoint string
	httpClient   aws.HTTPClient
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel sets the model ID, it may include an inference profile prefix.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithClient sets the Bedrock runtime client,
// other AWS options are ignored when the client is provided.
func WithClient(client *bedrockruntime.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithSharedConfigProfile sets the AWS shared config profile.
func WithSharedConfigProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithCredentials sets static AWS credentials.
func WithCredentials(accessKey, secretKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
		o.sessionToken = sessionToken
	}
}

// WithBaseEndpoint overrides the Bedrock runtime endpoint.
func WithBaseEndpoint(endpoint string) Option {
	return func(o *options) {
		o.baseEndpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used by the AWS SDK.
func WithHTTPClient(client aws.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}
