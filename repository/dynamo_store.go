package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// subscriberItem is the DynamoDB representation of a subscriber. Token
// hashes are stored only while their state holds them; removal deletes the
// attribute rather than writing an empty value.
type subscriberItem struct {
	Email                string     `dynamodbav:"email"`
	Status               string     `dynamodbav:"status"`
	Source               string     `dynamodbav:"source,omitempty"`
	CreatedAt            time.Time  `dynamodbav:"created_at"`
	UpdatedAt            time.Time  `dynamodbav:"updated_at"`
	ConfirmedAt          *time.Time `dynamodbav:"confirmed_at,omitempty"`
	ConfirmTokenHash     string     `dynamodbav:"confirm_token_hash,omitempty"`
	UnsubscribeTokenHash string     `dynamodbav:"unsubscribe_token_hash,omitempty"`
}

// DynamoAPI is the subset of the DynamoDB client the store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoSubscriberStore is the key-value subscriber store backed by DynamoDB
type DynamoSubscriberStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoSubscriberStore creates a store using the given client and table
func NewDynamoSubscriberStore(client DynamoAPI, table string) *DynamoSubscriberStore {
	return &DynamoSubscriberStore{client: client, table: table}
}

// FindByEmail retrieves a subscriber by normalized email; returns nil when absent
func (s *DynamoSubscriberStore) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	if email == "" {
		return nil, apperrors.NewValidationError("email cannot be empty")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		slog.Error("dynamo get subscriber", "error", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var item subscriberItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal subscriber item: %w", err)
	}

	return item.toModel(), nil
}

// CreateIfAbsent inserts a new subscriber with a conditional write so a
// concurrent create for the same email loses cleanly with AlreadyExists.
func (s *DynamoSubscriberStore) CreateIfAbsent(ctx context.Context, sub *models.Subscriber) error {
	if sub.Email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}

	item, err := attributevalue.MarshalMap(fromModel(sub))
	if err != nil {
		return fmt.Errorf("marshal subscriber item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return apperrors.NewAlreadyExistsError("subscriber already exists")
		}
		slog.Error("dynamo create subscriber", "error", err)
		return err
	}

	return nil
}

// UpdateFields applies a partial update with a single UpdateItem call:
// set assigns attributes, remove deletes them. Fails with NotFound when the
// record does not exist.
func (s *DynamoSubscriberStore) UpdateFields(ctx context.Context, email string, set map[string]interface{}, remove []string) error {
	if email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}

	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)

	var setParts []string
	i := 0
	for field, value := range set {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = field

		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal update value for %s: %w", field, err)
		}
		values[valueKey] = av
		setParts = append(setParts, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	var removeParts []string
	for j, field := range remove {
		nameKey := fmt.Sprintf("#r%d", j)
		names[nameKey] = field
		removeParts = append(removeParts, nameKey)
	}

	var expr strings.Builder
	if len(setParts) > 0 {
		expr.WriteString("SET " + strings.Join(setParts, ", "))
	}
	if len(removeParts) > 0 {
		if expr.Len() > 0 {
			expr.WriteString(" ")
		}
		expr.WriteString("REMOVE " + strings.Join(removeParts, ", "))
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:         aws.String(expr.String()),
		ConditionExpression:      aws.String("attribute_exists(email)"),
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return apperrors.NewNotFoundError("subscriber not found")
		}
		slog.Error("dynamo update subscriber", "error", err)
		return err
	}

	return nil
}

func (i *subscriberItem) toModel() *models.Subscriber {
	return &models.Subscriber{
		Email:                i.Email,
		Status:               i.Status,
		Source:               i.Source,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
		ConfirmedAt:          i.ConfirmedAt,
		ConfirmTokenHash:     i.ConfirmTokenHash,
		UnsubscribeTokenHash: i.UnsubscribeTokenHash,
	}
}

func fromModel(sub *models.Subscriber) *subscriberItem {
	return &subscriberItem{
		Email:                sub.Email,
		Status:               sub.Status,
		Source:               sub.Source,
		CreatedAt:            sub.CreatedAt,
		UpdatedAt:            sub.UpdatedAt,
		ConfirmedAt:          sub.ConfirmedAt,
		ConfirmTokenHash:     sub.ConfirmTokenHash,
		UnsubscribeTokenHash: sub.UnsubscribeTokenHash,
	}
}
