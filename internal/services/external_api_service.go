package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jaytnw/sage-insights/internal/apperr"
	"github.com/jaytnw/sage-insights/internal/models"
)

type labsResponse struct {
	Labs []models.Lab `json:"labs"`
}

type machinesResponse struct {
	Machines []models.Machine `json:"machines"`
}

type workOrdersResponse struct {
	Data []models.WorkOrder `json:"data"`
}

type downtimeResponse struct {
	Data *models.DowntimeSample `json:"data"`
}

// ExternalAPIService talks to the backend that owns labs, machines, work
// orders and downtime telemetry.
type ExternalAPIService interface {
	FetchLabsForUser(ctx context.Context, userID string) ([]models.Lab, error)
	FetchMachines(ctx context.Context, labID string) ([]models.Machine, error)
	// FetchWorkOrders returns every work order in the system; callers filter.
	FetchWorkOrders(ctx context.Context) ([]models.WorkOrder, error)
	// FetchDowntime returns nil without error when the backend has no data
	// for the machine.
	FetchDowntime(ctx context.Context, machineID, timeRange string) (*models.DowntimeSample, error)
}

type externalAPIService struct {
	client *resty.Client
}

// NewExternalAPIService builds the client. A zero timeout keeps the
// transport default.
func NewExternalAPIService(url string, timeout time.Duration) ExternalAPIService {
	client := resty.New().
		SetBaseURL(url).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &externalAPIService{client: client}
}

func (s *externalAPIService) FetchLabsForUser(ctx context.Context, userID string) ([]models.Lab, error) {
	var result labsResponse
	if err := s.get(ctx, "/api/labs/user", map[string]string{"userId": userID}, &result); err != nil {
		return nil, apperr.New("UPSTREAM_ERROR", "Failed to fetch labs", http.StatusBadGateway, err)
	}
	return result.Labs, nil
}

func (s *externalAPIService) FetchMachines(ctx context.Context, labID string) ([]models.Machine, error) {
	var result machinesResponse
	if err := s.get(ctx, "/api/machines", map[string]string{"labId": labID}, &result); err != nil {
		return nil, apperr.New("UPSTREAM_ERROR", "Failed to fetch machines", http.StatusBadGateway, err)
	}
	return result.Machines, nil
}

func (s *externalAPIService) FetchWorkOrders(ctx context.Context) ([]models.WorkOrder, error) {
	var result workOrdersResponse
	if err := s.get(ctx, "/api/work-orders", nil, &result); err != nil {
		return nil, apperr.New("UPSTREAM_ERROR", "Failed to fetch work orders", http.StatusBadGateway, err)
	}
	return result.Data, nil
}

func (s *externalAPIService) FetchDowntime(ctx context.Context, machineID, timeRange string) (*models.DowntimeSample, error) {
	var result downtimeResponse
	params := map[string]string{"machineId": machineID, "timeRange": timeRange}
	if err := s.get(ctx, "/api/influxdb/downtime", params, &result); err != nil {
		return nil, apperr.New("UPSTREAM_ERROR", "Failed to fetch downtime", http.StatusBadGateway, err)
	}
	return result.Data, nil
}

func (s *externalAPIService) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}
