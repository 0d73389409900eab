package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vehicle-market-api/internal/domain"
)

// Attribute names of the verification table.
const (
	attrSubject   = "subject"
	attrType      = "type"
	attrCode      = "code"
	attrExpiresAt = "expires_at"
	attrAttempts  = "attempts"
)

// itemAPI is the slice of the DynamoDB client the repository uses.
type itemAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// VerificationRepo manages pending one-time codes.
// PK: subject, SK: type ("login_otp" | "password_reset").
type VerificationRepo struct {
	client    itemAPI
	tableName string
}

func NewVerificationRepo(client itemAPI, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// Put stores v, replacing any pending code of the same subject and type.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.UserVerification) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, subject, verType string) (*domain.UserVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            verificationKey(subject, verType),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.UserVerification
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepo) Delete(ctx context.Context, subject, verType string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       verificationKey(subject, verType),
	})
	return err
}

// Consume deletes the record only while it still holds code. When another request
// consumed or replaced it first, domain.ErrNotFound is returned.
func (r *VerificationRepo) Consume(ctx context.Context, subject, verType, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      verificationKey(subject, verType),
		ConditionExpression:      aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": attrCode},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("verification already consumed: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// RecordFailure atomically increments the failed-attempt counter and returns the new value.
func (r *VerificationRepo) RecordFailure(ctx context.Context, subject, verType string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 verificationKey(subject, verType),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("attribute_exists(#s)"),
		ExpressionAttributeNames: map[string]string{
			"#a": attrAttempts,
			"#s": attrSubject,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return 0, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
		}
		return 0, err
	}
	n, ok := out.Attributes[attrAttempts].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts missing from update result")
	}
	return strconv.Atoi(n.Value)
}
