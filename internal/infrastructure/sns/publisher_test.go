package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestPublish(t *testing.T) {
	m := &mockSNS{}
	p := &Publisher{client: m, topicARN: "arn:aws:sns:us-east-1:000000000000:security"}

	m.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var ev SecurityEvent
		if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &ev); err != nil {
			return false
		}
		return aws.ToString(in.TopicArn) == p.topicARN &&
			ev.Type == EventPasswordReset &&
			ev.UserID == 7 &&
			ev.ID != "" &&
			!ev.OccurredAt.IsZero() &&
			aws.ToString(in.MessageAttributes["eventType"].StringValue) == EventPasswordReset
	})).Return(&sns.PublishOutput{}, nil)

	require.NoError(t, p.Publish(context.Background(), SecurityEvent{Type: EventPasswordReset, UserID: 7, Email: "a@example.com"}))
	m.AssertExpectations(t)
}

func TestPublish_Error(t *testing.T) {
	m := &mockSNS{}
	p := &Publisher{client: m, topicARN: "arn"}
	m.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := p.Publish(context.Background(), SecurityEvent{Type: EventLoginSucceeded})
	assert.ErrorContains(t, err, "throttled")
}
