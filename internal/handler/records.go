package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/api"
	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/models"
)

type RecordsHandler struct {
	fetcher buoy.RecordsFetcher
}

func NewRecordsHandler(fetcher buoy.RecordsFetcher) *RecordsHandler {
	return &RecordsHandler{
		fetcher: fetcher,
	}
}

// HandleRequest serves a records query. The buoy may come from the path
// (/buoys/{buoy}/records) or the query string; without one the known buoys
// are listed.
func (h *RecordsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := make(map[string]string, len(request.QueryStringParameters)+1)
	for k, v := range request.QueryStringParameters {
		params[k] = v
	}
	if b, ok := request.PathParameters["buoy"]; ok {
		params["buoy"] = b
	}

	if _, ok := params["buoy"]; !ok {
		return api.Success(api.NewBuoysResponse(models.KnownBuoys()))
	}

	req, err := api.ParseRecordsRequest(params)
	if err != nil {
		return api.Error(err.Error(), http.StatusBadRequest)
	}

	log.Info().
		Int("buoy", req.Buoy).
		Time("start", req.Start).
		Time("stop", req.Stop).
		Msg("Handling records request")

	result, err := FetchRecords(ctx, h.fetcher, req)
	if err != nil {
		status := api.StatusCode(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Int("buoy", req.Buoy).Msg("Error fetching records")
			return api.Error("Error fetching records", status)
		}
		return api.Error(err.Error(), status)
	}

	return api.Success(api.NewRecordsResponse(req, result))
}

// FetchRecords runs the pipeline with the requested direction resolution, or
// the fetcher's default when none was given.
func FetchRecords(ctx context.Context, fetcher buoy.RecordsFetcher, req api.RecordsRequest) (*buoy.Result, error) {
	if req.NumDirectionBins != nil {
		return fetcher.FetchBuoyRecordsWithBins(ctx, req.Buoy, req.Start, req.Stop, *req.NumDirectionBins)
	}
	return fetcher.FetchBuoyRecords(ctx, req.Buoy, req.Start, req.Stop)
}
