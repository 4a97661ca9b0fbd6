// Package stream provides DynamoDB Streams handlers that evict deleted rows
// from live identity maps.
package stream

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/loam/entity"
	"github.com/jacentio/loam/internal/ref"
)

// Evictor removes one row's instance from an identity map.
// *entity.Session implements it; applications hosting several sessions can
// implement it with a fan-out.
type Evictor interface {
	Evict(entityType string, key entity.Key) bool
}

// Config holds configuration for the Handler.
type Config struct {
	// Types maps DynamoDB table names to entity type names.
	// Tables without an entry use the table name as the type name.
	Types map[string]string

	// KeyAttribute is the partition key attribute name in stream records.
	// Default: "id"
	KeyAttribute string
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.KeyAttribute == "" {
		c.KeyAttribute = "id"
	}
}

// Handler processes DynamoDB stream events and translates row deletions into
// identity-map evictions, so a session never hands out an instance for a row
// that is known to be gone.
type Handler struct {
	evictor Evictor
	config  Config
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(evictor Evictor, config Config, logger *slog.Logger) *Handler {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		evictor: evictor,
		config:  config,
		logger:  logger,
	}
}

// HandleInvalidation processes a DynamoDB stream event.
// This function is designed to be used as an AWS Lambda handler.
//
// REMOVE records always evict. MODIFY records evict when a ttl attribute was
// newly set, which is how TTL-tombstone deletion schemes mark a row deleted
// long before DynamoDB physically removes it. Other records are ignored.
// Malformed records are logged and skipped rather than retried: eviction of
// an unparseable key cannot succeed on a later attempt either.
func (h *Handler) HandleInvalidation(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		h.processRecord(record)
	}
	return nil
}

// processRecord evicts the row described by a single stream record.
func (h *Handler) processRecord(record events.DynamoDBEventRecord) {
	switch record.EventName {
	case "REMOVE":
	case "MODIFY":
		oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
		newTTL := getNumberAttr(record.Change.NewImage, "ttl")
		if oldTTL != 0 || newTTL == 0 {
			return // not a tombstone transition
		}
	default:
		return
	}

	table := tableFromARN(record.EventSourceArn)
	entityType := h.config.Types[table]
	if entityType == "" {
		entityType = table
	}

	key, ok := recordKey(record.Change.Keys, h.config.KeyAttribute)
	if !ok {
		h.logger.Warn("skipping record without a usable key",
			"eventID", record.EventID,
			"table", table,
			"keyAttribute", h.config.KeyAttribute,
		)
		return
	}

	evicted := h.evictor.Evict(entityType, key)
	h.logger.Debug("processed deletion record",
		"eventID", record.EventID,
		"ref", ref.Entity(entityType, key),
		"evicted", evicted,
	)
}

// recordKey extracts the primary key value from a stream record's key image.
// String keys stay strings; number keys become int64 when integral and
// float64 otherwise, matching the dynamo fetcher's decoding.
func recordKey(keys map[string]events.DynamoDBAttributeValue, keyAttribute string) (entity.Key, bool) {
	av, ok := keys[keyAttribute]
	if !ok {
		return nil, false
	}
	switch av.DataType() {
	case events.DataTypeString:
		return av.String(), true
	case events.DataTypeNumber:
		if n, err := strconv.ParseInt(av.Number(), 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(av.Number(), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	// Binary keys are not comparable and cannot serve as identity-map keys.
	return nil, false
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// tableFromARN extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:region:account:table/NAME/stream/LABEL.
func tableFromARN(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
