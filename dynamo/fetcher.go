// Package dynamo implements the entity.Fetcher interface over DynamoDB.
//
// Each entity type maps to one table with a single-attribute primary key.
// Fetches use GetItem with a ProjectionExpression built from the requested
// attribute names, so a lazy load reads exactly one attribute and an eager
// load reads exactly the non-lazy set — DynamoDB never returns more than
// the entity layer asked for.
package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/loam/entity"
)

// GetItemAPI is the slice of the DynamoDB client the fetcher uses.
type GetItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Config holds configuration for the Fetcher.
type Config struct {
	// Tables maps entity type names to DynamoDB table names.
	// Types without an entry use the type name as the table name.
	Tables map[string]string

	// KeyAttribute is the partition key attribute name.
	// Default: "id"
	KeyAttribute string

	// ConsistentRead requests strongly consistent reads.
	// Default: false (eventually consistent)
	ConsistentRead bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyAttribute: "id",
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.KeyAttribute == "" {
		c.KeyAttribute = "id"
	}
}

// Fetcher retrieves entity attribute values from DynamoDB.
type Fetcher struct {
	client GetItemAPI
	config Config
}

var _ entity.Fetcher = (*Fetcher)(nil)

// New creates a new Fetcher instance.
func New(client GetItemAPI, config Config) *Fetcher {
	config.validate()
	return &Fetcher{
		client: client,
		config: config,
	}
}

// Fetch retrieves the requested attributes of one row, returning
// entity.ErrNotFound if the item does not exist.
func (f *Fetcher) Fetch(ctx context.Context, entityType string, key entity.Key, attributes []string) (map[string]any, error) {
	table := f.config.Tables[entityType]
	if table == "" {
		table = entityType
	}

	keyAttr, err := attributevalue.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	// An empty request still has to establish row existence, so project just
	// the key attribute.
	if len(attributes) == 0 {
		attributes = []string{f.config.KeyAttribute}
	}
	proj, exprNames := projection(attributes)

	result, err := f.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(table),
		Key:                      map[string]types.AttributeValue{f.config.KeyAttribute: keyAttr},
		ProjectionExpression:     aws.String(proj),
		ExpressionAttributeNames: exprNames,
		ConsistentRead:           aws.Bool(f.config.ConsistentRead),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%s#%v: %w", entityType, key, entity.ErrNotFound)
	}

	row := make(map[string]any, len(result.Item))
	for name, av := range result.Item {
		value, err := decodeAttr(av)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", entityType, name, err)
		}
		row[name] = value
	}
	return row, nil
}

// projection builds a ProjectionExpression with placeholder names, so
// requested attributes never collide with DynamoDB reserved words.
func projection(attributes []string) (string, map[string]string) {
	exprNames := make(map[string]string, len(attributes))
	expr := ""
	for i, name := range attributes {
		nameKey := fmt.Sprintf("#attr%d", i)
		exprNames[nameKey] = name
		if i > 0 {
			expr += ", "
		}
		expr += nameKey
	}
	return expr, exprNames
}

// decodeAttr converts a DynamoDB attribute value to a raw Go value.
// Numbers decode to int64 when integral, float64 otherwise; NULL decodes
// to nil. Lists and maps fall back to the attributevalue decoder.
func decodeAttr(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return n, nil
		}
		return strconv.ParseFloat(v.Value, 64)
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	default:
		var value any
		if err := attributevalue.Unmarshal(av, &value); err != nil {
			return nil, err
		}
		return value, nil
	}
}
