package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"signal-deck/internal/domain"
	"signal-deck/internal/metrics"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const latestAdvicesPath = "/api/get_last_10_advises"

type AdviceClient struct {
	tracer  trace.Tracer
	client  *resty.Client
	baseURL string
}

func NewAdviceClient(tracer trace.Tracer, baseURL string, timeout time.Duration) *AdviceClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Cache-Control", "no-store")

	return &AdviceClient{
		tracer:  tracer,
		client:  client,
		baseURL: baseURL,
	}
}

func (c *AdviceClient) BaseURL() string {
	return c.baseURL
}

// FetchLatestAdvices returns the backend's latest advices, newest first.
func (c *AdviceClient) FetchLatestAdvices(ctx context.Context) ([]domain.RawAdvice, error) {
	ctx, span := c.tracer.Start(ctx, "advice-client.fetch-latest")
	defer span.End()
	span.SetAttributes(attribute.String("advice.base_url", c.baseURL))

	start := time.Now()
	advices, status, err := c.fetch(ctx)
	metrics.RecordAdviceFetch(status, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return nil, err
	}
	span.SetAttributes(attribute.Int("advice.count", len(advices)))
	return advices, nil
}

func (c *AdviceClient) fetch(ctx context.Context) ([]domain.RawAdvice, string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(latestAdvicesPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "unknown", &domain.UnknownFetchError{Err: ctx.Err()}
		}
		return nil, "connectivity", &domain.ConnectivityError{BaseURL: c.baseURL, Err: err}
	}

	status := resp.StatusCode()
	if status >= http.StatusInternalServerError {
		return nil, "backend", &domain.BackendError{Status: status, Message: backendMessage(resp.Body())}
	}
	if status < 200 || status > 299 {
		return nil, "http", &domain.HTTPError{Status: status}
	}

	var advices []domain.RawAdvice
	if err := json.Unmarshal(resp.Body(), &advices); err != nil {
		return nil, "unknown", &domain.UnknownFetchError{Err: err}
	}

	sort.SliceStable(advices, func(i, j int) bool {
		return advices[i].PredictedAt > advices[j].PredictedAt
	})
	return advices, "success", nil
}

func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
