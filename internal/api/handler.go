package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/ndbc"
	"github.com/waveconnect/backend-go/internal/spectra"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type RecordErrorResponse struct {
	Datetime string `json:"datetime"`
	Error    string `json:"error"`
}

type RecordsResponse struct {
	APIResponse
	BuoyNumber   int                              `json:"buoyNumber"`
	BuoyName     string                           `json:"buoyName"`
	Start        string                           `json:"start"`
	Stop         string                           `json:"stop"`
	Wind         []models.WindRecord              `json:"wind"`
	Wave         []models.ReconstructedWaveRecord `json:"wave"`
	RecordErrors []RecordErrorResponse            `json:"recordErrors,omitempty"`
	SkippedLines int                              `json:"skippedLines"`
}

type BuoysResponse struct {
	APIResponse
	Buoys []models.Buoy `json:"buoys"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewRecordsResponse(req RecordsRequest, result *buoy.Result) *RecordsResponse {
	b, _ := models.BuoyOrDefault(req.Buoy)
	resp := &RecordsResponse{
		APIResponse:  APIResponse{ResponseType: "records"},
		BuoyNumber:   req.Buoy,
		BuoyName:     b.Name(),
		Start:        req.Start.Format(models.ISOLayout),
		Stop:         req.Stop.Format(models.ISOLayout),
		Wind:         result.Wind,
		Wave:         result.Wave,
		SkippedLines: result.SkippedLines,
	}
	if resp.Wind == nil {
		resp.Wind = []models.WindRecord{}
	}
	if resp.Wave == nil {
		resp.Wave = []models.ReconstructedWaveRecord{}
	}
	for _, re := range result.RecordErrors {
		resp.RecordErrors = append(resp.RecordErrors, RecordErrorResponse{
			Datetime: re.Timestamp.Format(models.ISOLayout),
			Error:    re.Err.Error(),
		})
	}
	return resp
}

func NewBuoysResponse(buoys []models.Buoy) *BuoysResponse {
	return &BuoysResponse{
		APIResponse: APIResponse{ResponseType: "buoys"},
		Buoys:       buoys,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// StatusCode maps pipeline errors to HTTP status codes
func StatusCode(err error) int {
	var invalidParam *InvalidParameterError
	var invalidRange *ndbc.InvalidRangeError
	var invalidBins *spectra.InvalidDirectionBinsError
	var noData *buoy.NoDataAvailableError
	switch {
	case errors.As(err, &invalidParam), errors.As(err, &invalidRange), errors.As(err, &invalidBins):
		return http.StatusBadRequest
	case errors.As(err, &noData):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RecordsRequest holds the parameters of a records query. NumDirectionBins
// is nil when the caller did not ask for a resolution.
type RecordsRequest struct {
	Buoy             int
	Start            time.Time
	Stop             time.Time
	NumDirectionBins *int
}

var timeLayouts = []string{models.ISOLayout, time.RFC3339, "2006-01-02"}

// ParseRecordsRequest reads buoy, start, stop and numDirBins from params
func ParseRecordsRequest(params map[string]string) (RecordsRequest, error) {
	var req RecordsRequest

	buoyStr, ok := params["buoy"]
	if !ok || buoyStr == "" {
		return req, NewInvalidParameterError("buoy", "is required")
	}
	number, err := strconv.Atoi(buoyStr)
	if err != nil || number <= 0 {
		return req, NewInvalidParameterError("buoy", "must be a positive integer")
	}
	req.Buoy = number

	if req.Start, err = parseTime(params, "start"); err != nil {
		return req, err
	}
	if req.Stop, err = parseTime(params, "stop"); err != nil {
		return req, err
	}

	if binsStr, ok := params["numDirBins"]; ok && binsStr != "" {
		n, err := strconv.Atoi(binsStr)
		if err != nil || spectra.ValidateDirectionBins(n) != nil {
			return req, NewInvalidParameterError("numDirBins", fmt.Sprintf("must be an integer between 0 and %d", spectra.MaxDirectionBins))
		}
		req.NumDirectionBins = &n
	}

	return req, nil
}

func parseTime(params map[string]string, name string) (time.Time, error) {
	value := strings.TrimSpace(params[name])
	if value == "" {
		return time.Time{}, NewInvalidParameterError(name, "is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewInvalidParameterError(name, fmt.Sprintf("invalid time %q (expected %s)", value, models.ISOLayout))
}

// InvalidParameterError reports a missing or malformed request parameter
type InvalidParameterError struct {
	Parameter string
	Message   string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %s %s", e.Parameter, e.Message)
}

func NewInvalidParameterError(parameter, message string) *InvalidParameterError {
	return &InvalidParameterError{Parameter: parameter, Message: message}
}
