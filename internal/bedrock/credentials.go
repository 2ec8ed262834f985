package bedrock

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Credentials binds the relay to one AWS account and region.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	// Endpoint overrides the Bedrock Runtime endpoint, e.g. for a VPC
	// interface endpoint. Empty uses the regional default.
	Endpoint string
}

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)

// Validate checks the values the SDK would otherwise only reject when the
// first request is signed.
func (c Credentials) Validate() error {
	if err := checkPair(c.AccessKeyID, c.SecretAccessKey); err != nil {
		return err
	}
	if c.Region == "" {
		return ErrMissingRegion
	}
	if !regionPattern.MatchString(c.Region) {
		return fmt.Errorf("%w: invalid region %q", ErrMalformedCredentials, c.Region)
	}
	if strings.ContainsAny(c.AccessKeyID, " \t\r\n") {
		return fmt.Errorf("%w: access key id contains whitespace", ErrMalformedCredentials)
	}
	if strings.ContainsAny(c.SecretAccessKey, " \t\r\n") {
		return fmt.Errorf("%w: secret access key contains whitespace", ErrMalformedCredentials)
	}
	return nil
}

func checkPair(id, secret string) error {
	switch {
	case id == "" && secret == "":
		return ErrNoCredentials
	case id == "" || secret == "":
		return ErrPartialCredentials
	}
	return nil
}

// staticProvider serves a fixed key pair and reports missing halves with the
// package sentinels so the relay can map them to 401 responses.
type staticProvider struct {
	id, secret string
}

func (p staticProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	if err := checkPair(p.id, p.secret); err != nil {
		return aws.Credentials{}, err
	}
	return credentials.NewStaticCredentialsProvider(p.id, p.secret, "").Retrieve(ctx)
}
