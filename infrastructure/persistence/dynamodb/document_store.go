// Package dynamodb stores documents as single DynamoDB items.
//
// Key layout:
//
//	PK = DOC#<document id>
//	SK = META
//
// The node list is kept as a list attribute on the same item.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"mindboard/application/dto"
	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
)

const (
	entityType = "DOCUMENT"
	metaSK     = "META"
)

// Client is the subset of the DynamoDB API the store uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// documentItem represents the DynamoDB item structure for a document
type documentItem struct {
	PK         string           `dynamodbav:"PK"`
	SK         string           `dynamodbav:"SK"`
	EntityType string           `dynamodbav:"EntityType"`
	DocumentID string           `dynamodbav:"DocumentID"`
	Title      string           `dynamodbav:"Title"`
	AuthorID   string           `dynamodbav:"AuthorID"`
	Nodes      []dto.NodeRecord `dynamodbav:"Nodes"`
	NodeCount  int              `dynamodbav:"NodeCount"`
	CreatedAt  string           `dynamodbav:"CreatedAt"`
	UpdatedAt  string           `dynamodbav:"UpdatedAt"`
}

// DocumentStore implements ports.DocumentStore on DynamoDB
type DocumentStore struct {
	client    Client
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(client Client, tableName string, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("dynamodb"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

func documentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "DOC#" + id},
		"SK": &types.AttributeValueMemberS{Value: metaSK},
	}
}

func newDocumentItem(doc *aggregates.Document) documentItem {
	nodes := dto.FromNodes(doc.Nodes())
	id := doc.ID().String()
	return documentItem{
		PK:         "DOC#" + id,
		SK:         metaSK,
		EntityType: entityType,
		DocumentID: id,
		Title:      doc.Title(),
		AuthorID:   doc.AuthorID(),
		Nodes:      nodes,
		NodeCount:  len(nodes),
		CreatedAt:  doc.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:  doc.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func (item documentItem) toDocument() (*aggregates.Document, error) {
	nodes, err := dto.ToNodes(item.Nodes)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", item.DocumentID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("document %s: invalid CreatedAt: %w", item.DocumentID, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("document %s: invalid UpdatedAt: %w", item.DocumentID, err)
	}
	return aggregates.ReconstructDocument(item.DocumentID, item.Title, item.AuthorID, nodes, created, updated)
}

func (item documentItem) summary() ports.DocumentSummary {
	updated, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return ports.DocumentSummary{
		ID:        item.DocumentID,
		Title:     item.Title,
		AuthorID:  item.AuthorID,
		NodeCount: item.NodeCount,
		UpdatedAt: updated,
	}
}

// Load retrieves a document by its ID
func (s *DocumentStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            documentKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apiError("get document", err)
	}
	if len(result.Item) == 0 {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	s.logger.Debug("Retrieved document from DynamoDB",
		zap.String("documentID", item.DocumentID),
		zap.Int("nodeCount", len(item.Nodes)),
	)
	return item.toDocument()
}

// Save overwrites the node list of an existing document
func (s *DocumentStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	records := dto.FromNodes(nodes)

	update := expression.
		Set(expression.Name("Nodes"), expression.Value(records)).
		Set(expression.Name("NodeCount"), expression.Value(len(records))).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       documentKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
		}
		s.logger.Error("Failed to save document to DynamoDB",
			zap.Error(err),
			zap.String("documentID", id),
		)
		return apiError("save document", err)
	}

	return nil
}

// Create persists a new document; an existing id is rejected
func (s *DocumentStore) Create(ctx context.Context, doc *aggregates.Document) error {
	av, err := attributevalue.MarshalMap(newDocumentItem(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewValidation(fmt.Sprintf("document %s already exists", doc.ID()))
		}
		return apiError("create document", err)
	}

	s.logger.Info("Created document in DynamoDB",
		zap.String("documentID", doc.ID().String()),
		zap.String("title", doc.Title()),
	)
	return nil
}

// List scans document metadata, paging through the whole table
func (s *DocumentStore) List(ctx context.Context) ([]ports.DocumentSummary, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityType))
	projection := expression.NamesList(
		expression.Name("DocumentID"),
		expression.Name("Title"),
		expression.Name("AuthorID"),
		expression.Name("NodeCount"),
		expression.Name("UpdatedAt"),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(projection).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	summaries := make([]ports.DocumentSummary, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, apiError("scan documents", err)
		}

		var items []documentItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
		for _, item := range items {
			summaries = append(summaries, item.summary())
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	ports.SortSummaries(summaries)
	return summaries, nil
}

// Delete removes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      documentKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
		}
		return apiError("delete document", err)
	}

	s.logger.Info("Deleted document from DynamoDB", zap.String("documentID", id))
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// apiError wraps a failed call, naming the service error code when there is one
func apiError(op string, err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if ae.ErrorCode() == "ResourceNotFoundException" {
		return pkgerrors.NewInternal(fmt.Sprintf("failed to %s: table not found", op), err)
	}
	return fmt.Errorf("failed to %s: %s: %w", op, ae.ErrorCode(), err)
}
