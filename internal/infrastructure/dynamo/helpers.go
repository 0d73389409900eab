package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// verificationKey addresses the single pending code a subject holds for verType.
func verificationKey(subject, verType string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSubject: &types.AttributeValueMemberS{Value: subject},
		attrType:    &types.AttributeValueMemberS{Value: verType},
	}
}

// isConditionFailed reports whether err is a failed ConditionExpression.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
