package dynamodb

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mindboard/application/ports"
	"mindboard/infrastructure/persistence/storetest"
	pkgerrors "mindboard/pkg/errors"
)

// fakeClient keeps items in memory and understands the expressions the store builds
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	failWith error
	scans    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func pk(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeClient) check(ctx context.Context, cond *string, names map[string]string, exists bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failWith != nil {
		return f.failWith
	}
	if cond == nil {
		return nil
	}
	switch {
	case strings.HasPrefix(*cond, "attribute_not_exists") && exists:
		return &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	case strings.HasPrefix(*cond, "attribute_exists") && !exists:
		return &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	return nil
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil, nil, false); err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: f.items[pk(in.Key)]}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pk(in.Item)
	_, exists := f.items[key]
	if err := f.check(ctx, in.ConditionExpression, in.ExpressionAttributeNames, exists); err != nil {
		return nil, err
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

var setClause = regexp.MustCompile(`(#\d+) = (:\d+)`)

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pk(in.Key)
	item, exists := f.items[key]
	if err := f.check(ctx, in.ConditionExpression, in.ExpressionAttributeNames, exists); err != nil {
		return nil, err
	}
	for _, m := range setClause.FindAllStringSubmatch(aws.ToString(in.UpdateExpression), -1) {
		item[in.ExpressionAttributeNames[m[1]]] = in.ExpressionAttributeValues[m[2]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pk(in.Key)
	_, exists := f.items[key]
	if err := f.check(ctx, in.ConditionExpression, in.ExpressionAttributeNames, exists); err != nil {
		return nil, err
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Scan returns one item per page to exercise pagination
func (f *fakeClient) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil, nil, false); err != nil {
		return nil, err
	}
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k, item := range f.items {
		if et, ok := item["EntityType"].(*types.AttributeValueMemberS); ok && et.Value == entityType {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		start = sort.SearchStrings(keys, pk(in.ExclusiveStartKey)) + 1
	}
	if start >= len(keys) {
		return &dynamodb.ScanOutput{}, nil
	}

	out := &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{f.items[keys[start]]}}
	if start+1 < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: keys[start]},
			"SK": &types.AttributeValueMemberS{Value: metaSK},
		}
	}
	return out, nil
}

func TestDocumentStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.DocumentStore {
		return NewDocumentStore(newFakeClient(), "boards", zaptest.NewLogger(t))
	})
}

func TestDocumentItem_Mapping(t *testing.T) {
	doc := storetest.NewDocument(t, "Mapped")
	item := newDocumentItem(doc)

	assert.Equal(t, "DOC#"+doc.ID().String(), item.PK)
	assert.Equal(t, "META", item.SK)
	assert.Equal(t, "DOCUMENT", item.EntityType)
	assert.Equal(t, 3, item.NodeCount)

	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)

	nodes, ok := av["Nodes"].(*types.AttributeValueMemberL)
	require.True(t, ok, "nodes are stored as a list")
	require.Len(t, nodes.Value, 3)

	root := nodes.Value[0].(*types.AttributeValueMemberM).Value
	assert.NotContains(t, root, "parentId", "roots omit the parent attribute")
	assert.Equal(t, "root", root["kind"].(*types.AttributeValueMemberS).Value)

	child := nodes.Value[1].(*types.AttributeValueMemberM).Value
	assert.Equal(t, doc.Nodes()[0].ID().String(), child["parentId"].(*types.AttributeValueMemberS).Value)

	shape := nodes.Value[2].(*types.AttributeValueMemberM).Value
	assert.Equal(t, "diamond", shape["shapeKind"].(*types.AttributeValueMemberS).Value)

	var decoded documentItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &decoded))
	got, err := decoded.toDocument()
	require.NoError(t, err)
	storetest.AssertSameNodes(t, doc.Nodes(), got.Nodes())
	assert.True(t, doc.CreatedAt().Equal(got.CreatedAt()))
}

func TestDocumentStore_ListPaginates(t *testing.T) {
	client := newFakeClient()
	store := NewDocumentStore(client, "boards", nil)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, store.Create(ctx, storetest.NewDocument(t, title)))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 3, client.scans)
}

func TestDocumentStore_ClientErrors(t *testing.T) {
	client := newFakeClient()
	client.failWith = errors.New("throttled")
	store := NewDocumentStore(client, "boards", nil)
	ctx := context.Background()

	err := store.Save(ctx, "doc", nil)
	assert.ErrorContains(t, err, "failed to save document")
	assert.ErrorContains(t, err, "throttled")

	_, err = store.Load(ctx, "doc")
	assert.ErrorContains(t, err, "failed to get document")
}

func TestDocumentStore_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		internal bool
		want     string
	}{
		{"missing table", "ResourceNotFoundException", true, "table not found"},
		{"throughput", "ProvisionedThroughputExceededException", false, "ProvisionedThroughputExceededException"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.failWith = &smithy.GenericAPIError{Code: tt.code, Message: "nope"}
			store := NewDocumentStore(client, "boards", nil)

			_, err := store.List(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.internal, pkgerrors.IsInternal(err))
			assert.ErrorContains(t, err, "failed to scan documents")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
