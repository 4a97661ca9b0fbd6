package stream_test

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/loam/entity"
	"github.com/jacentio/loam/stream"
)

// fakeEvictor records every eviction it receives.
type fakeEvictor struct {
	evictions []eviction
}

type eviction struct {
	entityType string
	key        entity.Key
}

func (f *fakeEvictor) Evict(entityType string, key entity.Key) bool {
	f.evictions = append(f.evictions, eviction{entityType: entityType, key: key})
	return true
}

const usersStreamARN = "arn:aws:dynamodb:us-east-1:123456789012:table/users/stream/2026-01-01T00:00:00.000"

func removeRecord(arn string, keys map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:        "evt-1",
		EventName:      "REMOVE",
		EventSourceArn: arn,
		Change: events.DynamoDBStreamRecord{
			Keys: keys,
		},
	}
}

func TestNewHandler(t *testing.T) {
	h := stream.NewHandler(nil, stream.Config{}, nil)
	if h == nil {
		t.Fatal("expected non-nil Handler")
	}
}

func TestHandler_Remove(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{
		Types: map[string]string{"users": "user"},
	}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			removeRecord(usersStreamARN, map[string]events.DynamoDBAttributeValue{
				"id": events.NewNumberAttribute("1"),
			}),
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}

	if len(evictor.evictions) != 1 {
		t.Fatalf("expected 1 eviction, got %d", len(evictor.evictions))
	}
	ev := evictor.evictions[0]
	if ev.entityType != "user" {
		t.Errorf("expected type 'user', got %q", ev.entityType)
	}
	if ev.key != int64(1) {
		t.Errorf("expected key int64(1), got %v (%T)", ev.key, ev.key)
	}
}

func TestHandler_Remove_StringKey(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			removeRecord(usersStreamARN, map[string]events.DynamoDBAttributeValue{
				"id": events.NewStringAttribute("abc"),
			}),
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}

	if len(evictor.evictions) != 1 {
		t.Fatalf("expected 1 eviction, got %d", len(evictor.evictions))
	}
	// No table mapping configured: the table name is used as the type name.
	if evictor.evictions[0].entityType != "users" {
		t.Errorf("expected type 'users', got %q", evictor.evictions[0].entityType)
	}
	if evictor.evictions[0].key != "abc" {
		t.Errorf("expected key 'abc', got %v", evictor.evictions[0].key)
	}
}

func TestHandler_Modify_Tombstone(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{
		Types: map[string]string{"users": "user"},
	}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventID:        "evt-2",
				EventName:      "MODIFY",
				EventSourceArn: usersStreamARN,
				Change: events.DynamoDBStreamRecord{
					Keys: map[string]events.DynamoDBAttributeValue{
						"id": events.NewNumberAttribute("2"),
					},
					OldImage: map[string]events.DynamoDBAttributeValue{
						"id": events.NewNumberAttribute("2"),
					},
					NewImage: map[string]events.DynamoDBAttributeValue{
						"id":  events.NewNumberAttribute("2"),
						"ttl": events.NewNumberAttribute("1700000000"),
					},
				},
			},
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}

	if len(evictor.evictions) != 1 {
		t.Fatalf("expected a tombstone MODIFY to evict, got %d evictions", len(evictor.evictions))
	}
	if evictor.evictions[0].key != int64(2) {
		t.Errorf("expected key int64(2), got %v", evictor.evictions[0].key)
	}
}

func TestHandler_Modify_NotTombstone(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventName:      "MODIFY",
				EventSourceArn: usersStreamARN,
				Change: events.DynamoDBStreamRecord{
					Keys: map[string]events.DynamoDBAttributeValue{
						"id": events.NewNumberAttribute("2"),
					},
					OldImage: map[string]events.DynamoDBAttributeValue{
						"name": events.NewStringAttribute("old"),
					},
					NewImage: map[string]events.DynamoDBAttributeValue{
						"name": events.NewStringAttribute("new"),
					},
				},
			},
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}
	if len(evictor.evictions) != 0 {
		t.Errorf("expected a plain MODIFY to be ignored, got %d evictions", len(evictor.evictions))
	}
}

func TestHandler_Insert_Ignored(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventName:      "INSERT",
				EventSourceArn: usersStreamARN,
				Change: events.DynamoDBStreamRecord{
					Keys: map[string]events.DynamoDBAttributeValue{
						"id": events.NewNumberAttribute("3"),
					},
				},
			},
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}
	if len(evictor.evictions) != 0 {
		t.Errorf("expected INSERT to be ignored, got %d evictions", len(evictor.evictions))
	}
}

func TestHandler_MissingKey_Skipped(t *testing.T) {
	evictor := &fakeEvictor{}
	h := stream.NewHandler(evictor, stream.Config{KeyAttribute: "user_id"}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			removeRecord(usersStreamARN, map[string]events.DynamoDBAttributeValue{
				"id": events.NewNumberAttribute("1"),
			}),
		},
	}

	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("expected malformed records to be skipped, got %v", err)
	}
	if len(evictor.evictions) != 0 {
		t.Errorf("expected no evictions, got %d", len(evictor.evictions))
	}
}

func TestHandler_SessionIntegration(t *testing.T) {
	// Evict straight out of a live session.
	registry := entity.NewRegistry()
	if err := registry.Register(entity.MustType("user",
		entity.Attribute{Name: "name", Kind: entity.KindString},
	)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	fetcher := entity.FetcherFunc(func(ctx context.Context, entityType string, key entity.Key, attributes []string) (map[string]any, error) {
		return map[string]any{"name": "someone"}, nil
	})

	sess := entity.Open(registry, fetcher, entity.DefaultConfig())
	defer sess.Close()

	if _, err := sess.Get(context.Background(), "user", int64(1)); err != nil {
		t.Fatalf("Get: %v", err)
	}

	h := stream.NewHandler(sess, stream.Config{
		Types: map[string]string{"users": "user"},
	}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			removeRecord(usersStreamARN, map[string]events.DynamoDBAttributeValue{
				"id": events.NewNumberAttribute("1"),
			}),
		},
	}
	if err := h.HandleInvalidation(context.Background(), event); err != nil {
		t.Fatalf("HandleInvalidation: %v", err)
	}

	if _, ok := sess.Lookup("user", int64(1)); ok {
		t.Error("expected the row to be evicted from the session")
	}
}
