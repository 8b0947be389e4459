package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/karvix-api/internal/config"
	"github.com/karvix-api/internal/infrastructure/awsx"
)

// SMSSender sends SMS messages via AWS SNS. Used to tell workers about new assignments.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type sender struct {
	client *sns.Client
}

// NewSender publishes through SNS in cfg.SNSRegion. The credential check up
// front lets main fall back to NewLogSender on hosts without AWS access.
func NewSender(ctx context.Context, cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsx.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("sns credentials: %w", err)
	}
	return &sender{client: sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = awsx.Endpoint(cfg)
	})}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

type logSender struct{}

// NewLogSender returns a sender that only logs. main falls back to it when SNS is not configured.
func NewLogSender() SMSSender { return logSender{} }

func (logSender) SendSMS(_ context.Context, to, message string) error {
	slog.Info("sms not sent: SNS unavailable", "to", to, "len", len(message))
	return nil
}
