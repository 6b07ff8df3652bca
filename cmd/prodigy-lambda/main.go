// Command prodigy-lambda serves the status query as an AWS Lambda behind
// API Gateway. The store and scheduler are warmed up during init, before
// the first invocation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/me/prodigy/internal/app"
	"github.com/me/prodigy/internal/config"
	"github.com/me/prodigy/internal/logging"
	"github.com/me/prodigy/internal/query"
)

var (
	logger *slog.Logger
	prod   *app.App
)

func init() {
	cfg := config.DefaultConfig()
	if path := os.Getenv("PRODIGY_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// CloudWatch indexes JSON lines.
	logger = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), "json")

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open app", "error", err)
		os.Exit(1)
	}
	if err := a.Warmup(ctx); err != nil {
		logger.Error("warm-up failed", "error", err)
		os.Exit(1)
	}
	prod = a
}

// statusHandler answers GET /status?id= proxied by API Gateway.
func statusHandler(a *app.App, logger *slog.Logger) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		var id *string
		if v, ok := req.QueryStringParameters["id"]; ok {
			id = &v
		}

		var resp query.Response
		if c := a.Container(); c == nil || c.Scheduler == nil {
			resp = query.Response{StatusCode: 500, ContentType: query.ContentTypeText, Body: "scheduler not initialized"}
		} else {
			resp = query.New(c.Scheduler, logger).Handle(ctx, id)
		}

		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    map[string]string{"Content-Type": resp.ContentType},
			Body:       resp.Body,
		}, nil
	}
}

func main() {
	lambda.Start(statusHandler(prod, logger))
}
