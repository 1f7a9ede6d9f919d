package safety

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ErrIncidentNotFound indicates the requested incident ID does not exist.
var ErrIncidentNotFound = errors.New("safety: incident not found")

// Store persists incidents to DynamoDB. History reads go through the
// userId/createdAt global secondary index.
type Store struct {
	client    dynamoAPI
	tableName string
	userIndex string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName, userIndex string, logger *logging.Logger) *Store {
	if client == nil {
		panic("safety: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("safety: table name cannot be empty")
	}
	if userIndex == "" {
		panic("safety: user index name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, tableName: tableName, userIndex: userIndex, logger: logger}
}

// Insert writes an incident with an existence guard. Re-inserting an ID that
// is already present succeeds without touching the stored record, so replays
// of the same analysis stay idempotent.
func (s *Store) Insert(ctx context.Context, incident *Incident) error {
	if incident == nil {
		return errors.New("safety: incident cannot be nil")
	}
	item, err := attributevalue.MarshalMap(incident)
	if err != nil {
		return fmt.Errorf("safety: marshal incident: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.logger.Debug("incident already persisted", "incident_id", incident.ID)
			return nil
		}
		return fmt.Errorf("safety: persist incident: %w", err)
	}
	return nil
}

// QueryByUser returns up to limit of a user's incidents, newest first.
// A non-positive limit returns everything the index holds for the user.
func (s *Store) QueryByUser(ctx context.Context, userID string, limit int32) ([]Incident, error) {
	if userID == "" {
		return nil, errors.New("safety: userID required")
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.userIndex),
		KeyConditionExpression: aws.String("userId = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("safety: query incidents: %w", err)
	}
	incidents := make([]Incident, 0, len(out.Items))
	for _, item := range out.Items {
		var incident Incident
		if err := attributevalue.UnmarshalMap(item, &incident); err != nil {
			return nil, fmt.Errorf("safety: decode incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	return incidents, nil
}

// UpdateStatus moves an existing incident to a new status.
func (s *Store) UpdateStatus(ctx context.Context, incidentID, status string) error {
	if incidentID == "" {
		return errors.New("safety: incidentID required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: incidentID},
		},
		UpdateExpression: aws.String("SET #status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrIncidentNotFound
		}
		return fmt.Errorf("safety: update incident %s: %w", incidentID, err)
	}
	return nil
}

// Ping reports durable-store reachability.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("safety: describe table: %w", err)
	}
	return nil
}
