package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Invoker is the part of the Bedrock Runtime API used by the relay.
// *bedrockruntime.Client satisfies it.
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client sends prompts to the fixed model. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	invoker Invoker
	region  string
}

// NewClient validates creds and builds a long-lived Bedrock Runtime client.
// The SDK retryer is disabled: a failed call is reported, never repeated.
func NewClient(creds Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	cfg := aws.Config{
		Region:      creds.Region,
		Credentials: aws.NewCredentialsCache(staticProvider{id: creds.AccessKeyID, secret: creds.SecretAccessKey}),
		Retryer:     func() aws.Retryer { return aws.NopRetryer{} },
	}
	rt := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
		}
	})
	return &Client{invoker: rt, region: creds.Region}, nil
}

// NewClientWithInvoker wraps an existing Invoker, typically a test stub.
func NewClientWithInvoker(inv Invoker, region string) *Client {
	return &Client{invoker: inv, region: region}
}

// Region returns the region the client is bound to.
func (c *Client) Region() string { return c.region }

// Invoke sends prompt in the fixed envelope and returns the decoded response.
// Failures of the call itself are returned as *UpstreamError.
func (c *Client) Invoke(ctx context.Context, prompt string) (ResponseBody, error) {
	in, err := NewInvokeModelInput(prompt)
	if err != nil {
		return ResponseBody{}, err
	}
	out, err := c.invoker.InvokeModel(ctx, in)
	if err != nil {
		return ResponseBody{}, &UpstreamError{Err: err}
	}
	rb, err := DecodeResponse(out.Body)
	if err != nil {
		return ResponseBody{}, &UpstreamError{Err: err}
	}
	return rb, nil
}
