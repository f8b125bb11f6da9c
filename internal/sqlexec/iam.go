package sqlexec

import (
	"context"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds/rdsutils"
)

// TokenSource supplies the password for each new backend connection.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RDSTokenSource signs short-lived RDS IAM auth tokens. Tokens are valid for
// fifteen minutes, so one is built per connection rather than cached.
type RDSTokenSource struct {
	// Endpoint must include the port or RDS rejects the token.
	Endpoint string
	Region   string
	User     string
	Creds    *credentials.Credentials
}

// NewRDSTokenSource resolves AWS credentials through the default chain
// (environment, shared config, instance role).
func NewRDSTokenSource(endpoint, region, user string) (*RDSTokenSource, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	return &RDSTokenSource{
		Endpoint: endpoint,
		Region:   region,
		User:     user,
		Creds:    sess.Config.Credentials,
	}, nil
}

func (s *RDSTokenSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return rdsutils.BuildAuthToken(s.Endpoint, s.Region, s.User, s.Creds)
}

// replacePassword swaps the password of a URL-style DSN.
func replacePassword(dsn, password string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}
