package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/config"
	"github.com/waveconnect/backend-go/internal/handler"
)

var (
	lambdaStart    = lambda.Start
	recordsHandler *handler.RecordsHandler
	setupOnce      sync.Once
	serviceFactory buoy.ServiceFactory = &buoy.DefaultServiceFactory{}
	initHandler                        = defaultInitHandler
)

func defaultInitHandler(ctx context.Context) (*handler.RecordsHandler, error) {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	svc, err := serviceFactory.NewService(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing buoy service: %w", err)
	}
	return handler.NewRecordsHandler(svc), nil
}

func handleRequest(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if recordsHandler == nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"responseType":"error","error":"Handler not initialized"}`,
		}, fmt.Errorf("handler not initialized")
	}
	return recordsHandler.HandleRequest(ctx, event)
}

func InitializeService() error {
	var initError error
	setupOnce.Do(func() {
		log.Debug().Msg("Initializing records service...")
		h, err := initHandler(context.Background())
		if err != nil {
			initError = fmt.Errorf("failed to initialize handler: %w", err)
			log.Error().Err(err).Msg("Failed to initialize handler")
			return
		}
		recordsHandler = h
		log.Debug().Msg("Records service initialized")
	})
	return initError
}

func main() {
	if err := InitializeService(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	lambdaStart(handleRequest)
}
