package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// Mock DynamoDB client for testing
type mockDynamoClient struct {
	mock.Mock
}

var _ DynamoAPI = (*mockDynamoClient)(nil)

func (m *mockDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.GetItemOutput), nil
}

func (m *mockDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), nil
}

func (m *mockDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.UpdateItemOutput), nil
}

func TestDynamoStore_FindByEmail_AbsentIsNil(t *testing.T) {
	client := new(mockDynamoClient)
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

	store := NewDynamoSubscriberStore(client, "subscribers")

	sub, err := store.FindByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestDynamoStore_FindByEmail_UnmarshalsItem(t *testing.T) {
	client := new(mockDynamoClient)
	created := time.Date(2026, 8, 14, 6, 0, 0, 0, time.UTC)
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		key, ok := in.Key["email"].(*types.AttributeValueMemberS)
		return ok && key.Value == "user@example.com" && *in.TableName == "subscribers"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"email":              &types.AttributeValueMemberS{Value: "user@example.com"},
		"status":             &types.AttributeValueMemberS{Value: models.StatusPending},
		"source":             &types.AttributeValueMemberS{Value: "blog-footer"},
		"created_at":         &types.AttributeValueMemberS{Value: created.Format(time.RFC3339Nano)},
		"updated_at":         &types.AttributeValueMemberS{Value: created.Format(time.RFC3339Nano)},
		"confirm_token_hash": &types.AttributeValueMemberS{Value: "confirmhash"},
	}}, nil)

	store := NewDynamoSubscriberStore(client, "subscribers")

	sub, err := store.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, "blog-footer", sub.Source)
	assert.Equal(t, "confirmhash", sub.ConfirmTokenHash)
	assert.Empty(t, sub.UnsubscribeTokenHash)
	assert.Nil(t, sub.ConfirmedAt)
}

func TestDynamoStore_CreateIfAbsent_ConditionalPut(t *testing.T) {
	client := new(mockDynamoClient)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.ConditionExpression) == "attribute_not_exists(email)"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	store := NewDynamoSubscriberStore(client, "subscribers")

	err := store.CreateIfAbsent(context.Background(), &models.Subscriber{
		Email:            "user@example.com",
		Status:           models.StatusPending,
		ConfirmTokenHash: "confirmhash",
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestDynamoStore_CreateIfAbsent_ConflictMapsToAlreadyExists(t *testing.T) {
	client := new(mockDynamoClient)
	client.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	store := NewDynamoSubscriberStore(client, "subscribers")

	err := store.CreateIfAbsent(context.Background(), &models.Subscriber{
		Email:  "user@example.com",
		Status: models.StatusPending,
	})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.AlreadyExistsError, appErr.Type)
}

func TestDynamoStore_UpdateFields_BuildsSetAndRemove(t *testing.T) {
	client := new(mockDynamoClient)
	var captured *dynamodb.UpdateItemInput
	client.On("UpdateItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*dynamodb.UpdateItemInput)
	}).Return(&dynamodb.UpdateItemOutput{}, nil)

	store := NewDynamoSubscriberStore(client, "subscribers")

	err := store.UpdateFields(context.Background(), "user@example.com",
		map[string]interface{}{models.FieldStatus: models.StatusActive},
		[]string{models.FieldConfirmTokenHash},
	)
	require.NoError(t, err)
	require.NotNil(t, captured)

	expr := aws.ToString(captured.UpdateExpression)
	assert.Contains(t, expr, "SET #f0 = :v0")
	assert.Contains(t, expr, "REMOVE #r0")
	assert.Equal(t, "attribute_exists(email)", aws.ToString(captured.ConditionExpression))
	assert.Equal(t, models.FieldStatus, captured.ExpressionAttributeNames["#f0"])
	assert.Equal(t, models.FieldConfirmTokenHash, captured.ExpressionAttributeNames["#r0"])
}

func TestDynamoStore_UpdateFields_MissingRecordMapsToNotFound(t *testing.T) {
	client := new(mockDynamoClient)
	client.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	store := NewDynamoSubscriberStore(client, "subscribers")

	err := store.UpdateFields(context.Background(), "missing@example.com",
		map[string]interface{}{models.FieldStatus: models.StatusActive}, nil)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.NotFoundError, appErr.Type)
}
