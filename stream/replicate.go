// Package stream provides DynamoDB Streams handlers that replay changes onto
// another table.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/dynabatch/attr"
	"github.com/jacentio/dynabatch/batch"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// ErrNoNewImage is returned for an INSERT or MODIFY record whose stream does
// not carry new images.
var ErrNoNewImage = errors.New("dynabatch: stream record has no new image")

// Config controls where and how records are replayed.
type Config struct {
	// TargetTable receives the writes. Required.
	TargetTable string

	// Policy governs retries; the zero value means batch.DefaultPolicy.
	// Concurrency is forced to 1 so that records are applied in stream
	// order.
	Policy batch.Policy
}

// Handler replays DynamoDB stream records as batch writes on a target table.
type Handler struct {
	writer batch.Writer
	config Config
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(w batch.Writer, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Policy == (batch.Policy{}) {
		cfg.Policy = batch.DefaultPolicy()
	}
	cfg.Policy.Concurrency = 1
	return &Handler{
		writer: w,
		config: cfg,
		logger: logger,
	}
}

// HandleStream applies every record of event to the target table.
// INSERT and MODIFY become puts of the new image; REMOVE becomes a delete of
// the record's keys. Any failure is returned so Lambda retries the batch.
func (h *Handler) HandleStream(ctx context.Context, event events.DynamoDBEvent) error {
	_, err := h.replay(ctx, event)
	return err
}

// HandleStreamBatch is HandleStream with partial batch responses: when some
// records could not be written, the earliest of them is reported as the
// batch item failure and Lambda resumes from there.
func (h *Handler) HandleStreamBatch(ctx context.Context, event events.DynamoDBEvent) (events.DynamoDBEventResponse, error) {
	var resp events.DynamoDBEventResponse

	failed, err := h.replay(ctx, event)
	if err == nil {
		return resp, nil
	}
	if failed < 0 {
		return resp, err
	}
	resp.BatchItemFailures = []events.DynamoDBBatchItemFailure{{
		ItemIdentifier: event.Records[failed].Change.SequenceNumber,
	}}
	return resp, nil
}

// replay writes the records and returns the index of the earliest record
// left unwritten, or -1 when no single record can be blamed.
func (h *Handler) replay(ctx context.Context, event events.DynamoDBEvent) (int, error) {
	if h.config.TargetTable == "" {
		return -1, errors.New("dynabatch: stream target table not set")
	}

	entries, keyNames, err := h.entries(event)
	if err != nil {
		return -1, err
	}
	if len(entries) == 0 {
		return -1, nil
	}

	planner := batch.Planner{Keys: map[string][]string{h.config.TargetTable: keyNames}}
	chunks, err := planner.Plan(entries)
	if err != nil {
		h.logger.Error("failed to plan stream writes", "error", err)
		return -1, err
	}

	h.logger.Info("replaying stream records",
		"records", len(event.Records),
		"writes", len(entries),
		"chunks", len(chunks),
		"target", h.config.TargetTable,
	)

	err = batch.NewExecutor(h.writer, h.config.Policy, h.logger).Execute(ctx, chunks)
	if err == nil {
		return -1, nil
	}

	var be *batch.Error
	if !errors.As(err, &be) {
		return -1, err
	}
	earliest := -1
	for _, e := range be.Failed() {
		if earliest < 0 || e.Index < earliest {
			earliest = e.Index
		}
	}
	if earliest >= 0 {
		record := event.Records[earliest]
		h.logger.Error("failed to replay record",
			"eventID", record.EventID,
			"sequenceNumber", record.Change.SequenceNumber,
			"error", err,
		)
	}
	return earliest, err
}

// entries converts the records of event into write entries. Entry.Index is
// the position of the record in the event.
func (h *Handler) entries(event events.DynamoDBEvent) ([]batch.Entry, []string, error) {
	var (
		entries  []batch.Entry
		keyNames []string
	)
	for i, record := range event.Records {
		req, ok, err := h.writeRequest(record)
		if err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return nil, nil, fmt.Errorf("record %s: %w", record.EventID, err)
		}
		if !ok {
			continue
		}
		if keyNames == nil {
			keyNames = imageKeys(record.Change.Keys)
		}
		entries = append(entries, batch.Entry{
			Table:   h.config.TargetTable,
			Request: req,
			Index:   i,
		})
	}
	return entries, keyNames, nil
}

// writeRequest converts one record. ok is false for records that carry no
// change to replay.
func (h *Handler) writeRequest(record events.DynamoDBEventRecord) (batch.WriteRequest, bool, error) {
	switch record.EventName {
	case EventInsert, EventModify:
		if len(record.Change.NewImage) == 0 {
			return batch.WriteRequest{}, false, ErrNoNewImage
		}
		item, err := ConvertImage(record.Change.NewImage)
		if err != nil {
			return batch.WriteRequest{}, false, err
		}
		return batch.Put(item), true, nil

	case EventRemove:
		key, err := ConvertImage(record.Change.Keys)
		if err != nil {
			return batch.WriteRequest{}, false, err
		}
		if key.Len() == 0 {
			return batch.WriteRequest{}, false, errors.New("dynabatch: remove record has no keys")
		}
		return batch.Delete(key), true, nil

	default:
		h.logger.Debug("skipping record",
			"eventID", record.EventID,
			"eventName", record.EventName,
		)
		return batch.WriteRequest{}, false, nil
	}
}

// ConvertImage converts a stream image into an attribute map. Attributes are
// kept in sorted name order.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (*attr.Map, error) {
	if len(image) == 0 {
		return attr.NewMap(), nil
	}
	wire, err := json.Marshal(image)
	if err != nil {
		return nil, fmt.Errorf("marshal stream image: %w", err)
	}
	return attr.ParseWireItem(wire)
}

// SourceTable extracts the table name from a stream event source ARN such as
// arn:aws:dynamodb:us-east-1:123456789012:table/Books/stream/2024-01-01T00:00:00.000.
// It returns "" when arn does not name a table.
func SourceTable(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	table, _, _ := strings.Cut(rest, "/")
	return table
}

func imageKeys(keys map[string]events.DynamoDBAttributeValue) []string {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
