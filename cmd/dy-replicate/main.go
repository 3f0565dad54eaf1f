// Command dy-replicate is a Lambda function that replays a DynamoDB stream
// onto another table.
//
// Environment:
//
//	DY_TARGET_TABLE  table that receives the writes (required)
//	DY_ENDPOINT_URL  DynamoDB endpoint override (optional)
//	DY_LOG_LEVEL     debug, info, warn or error (default info)
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/dynabatch/batch"
	"github.com/jacentio/dynabatch/store"
	"github.com/jacentio/dynabatch/stream"
)

func main() {
	var level slog.Level
	if v := os.Getenv("DY_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			slog.Error("invalid DY_LOG_LEVEL", "value", v, "error", err)
			os.Exit(1)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	target := os.Getenv("DY_TARGET_TABLE")
	if target == "" {
		logger.Error("DY_TARGET_TABLE is not set")
		os.Exit(1)
	}

	client, err := store.LoadClient(context.Background(), store.ClientConfig{
		Endpoint: os.Getenv("DY_ENDPOINT_URL"),
	})
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	h := stream.NewHandler(store.New(client, store.DefaultConfig()), stream.Config{
		TargetTable: target,
		Policy:      batch.DefaultPolicy(),
	}, logger)

	lambda.Start(h.HandleStreamBatch)
}
