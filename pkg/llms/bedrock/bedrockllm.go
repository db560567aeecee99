package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/llms/bedrock/internal/bedrockclient"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/pkg/llms", "bedrock")

var (
	ErrMissingModel           = errors.New("bedrock: model is required")
	ErrUnsupportedMessageType = errors.New("bedrock: unsupported message type")
)

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

// New creates a new Bedrock LLM implementation.
func New(opts ...Option) (*LLM, error) {
	o, c, err := newClient(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client:  c,
		modelID: o.modelID,
	}, nil
}

func newClient(ctx context.Context, opts ...Option) (*options, *bedrockclient.Client, error) {
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.modelID == "" {
		return options, nil, ErrMissingModel
	}
	if err := bedrockclient.CheckModel(options.modelID); err != nil {
		return options, nil, err
	}

	if options.client == nil {
		var cfgOpts []func(*config.LoadOptions) error
		if options.region != "" {
			cfgOpts = append(cfgOpts, config.WithRegion(options.region))
		}
		if options.profile != "" {
			cfgOpts = append(cfgOpts, config.WithSharedConfigProfile(options.profile))
		}
		if options.accessKey != "" {
			cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(options.accessKey, options.secretKey, options.sessionToken)))
		}
		if options.httpClient != nil {
			cfgOpts = append(cfgOpts, config.WithHTTPClient(options.httpClient))
		}

		cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
		if err != nil {
			return options, nil, errors.WithMessage(err, "bedrock: failed to load AWS config")
		}

		var clientOpts []func(*bedrockruntime.Options)
		if options.baseEndpoint != "" {
			endpoint := options.baseEndpoint
			clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		options.client = bedrockruntime.NewFromConfig(cfg, clientOpts...)

		logger.KV(xlog.DEBUG,
			"status", "client_created",
			"model", options.modelID,
			"region", cfg.Region,
			"profile", options.profile,
		)
	}

	return options, bedrockclient.NewClient(options.client), nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(l.modelID, options...)

	m, err := processMessages(messages)
	if err != nil {
		return nil, err
	}

	res, err := l.client.CreateCompletion(ctx, opts.Model, m, opts)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func processMessages(messages []llms.Message) ([]bedrockclient.Message, error) {
	bedrockMsgs := make([]bedrockclient.Message, 0, len(messages))

	for _, m := range messages {
		for _, part := range m.Parts {
			switch part := part.(type) {
			case llms.TextContent:
				// empty text blocks are rejected by the API
				if part.Text == "" {
					continue
				}
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:    m.Role,
					Content: part.Text,
					Type:    "text",
				})
			case llms.ToolCall:
				if part.FunctionCall == nil {
					return nil, errors.WithMessagef(ErrUnsupportedMessageType, "tool call %s without function", part.ID)
				}
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:       m.Role,
					Type:       "tool_use",
					ToolCallID: part.ID,
					ToolName:   part.FunctionCall.Name,
					ToolInput:  part.FunctionCall.Arguments,
				})
			case llms.ToolCallResponse:
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:       m.Role,
					Content:    part.Content,
					Type:       "tool_result",
					ToolCallID: part.ToolCallID,
				})
			default:
				return nil, errors.WithMessagef(ErrUnsupportedMessageType, "%T", part)
			}
		}
	}
	return bedrockMsgs, nil
}

var _ llms.Model = (*LLM)(nil)
