//go:build lambda
// +build lambda

package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/config"
	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/server"
)

var ginLambda *ginadapter.GinLambda

func init() {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(cfg.Stage)

	orchestrator, err := server.BuildOrchestrator(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build orchestrator", zap.Error(err))
	}

	ginLambda = ginadapter.New(server.New(orchestrator, cfg).Router())
}

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.Debug("Received Lambda request",
		zap.String("path", req.Path),
		zap.Any("request", spew.Sdump(req)),
	)

	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	defer logger.Sync()
	lambda.Start(Handler)
}
