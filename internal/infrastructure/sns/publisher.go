package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/vehicle-market-api/internal/pkg/id"
)

// Security event types.
const (
	EventLoginSucceeded = "login.succeeded"
	EventPasswordReset  = "password.reset"
)

// SecurityEvent is the JSON message published for account activity.
type SecurityEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"userId"`
	Email      string    `json:"email"`
	Method     string    `json:"method,omitempty"` // password | google
	OccurredAt time.Time `json:"occurredAt"`
}

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends security events to an SNS topic.
type Publisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher creates a Publisher. A non-empty endpoint (LocalStack) overrides the
// resolved SNS endpoint.
func NewPublisher(awsCfg aws.Config, endpoint, topicARN string) *Publisher {
	var opts []func(*sns.Options)
	if endpoint != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return &Publisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: topicARN}
}

func (p *Publisher) Publish(ctx context.Context, ev SecurityEvent) error {
	if ev.ID == "" {
		ev.ID = id.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", ev.Type, err)
	}
	return nil
}
