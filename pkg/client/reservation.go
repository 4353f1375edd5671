package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/model"
)

const RequesterHeader = "X-Requester-ID"

// ReservationClient talks to a remote reservations service over HTTP.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseURL string) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// WaitForHealthy polls the service health endpoint until it answers or
// maxWait elapses.
func (c *ReservationClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

type acceptedResponse struct {
	Data struct {
		RequestID string `json:"request_id"`
	} `json:"data"`
}

func (c *ReservationClient) SubmitReservation(ctx context.Context, req *model.ReservationRequest) (string, error) {
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/reservations", req, requesterHeader(req.Requester))
	if err != nil {
		return "", err
	}
	return decodeAccepted(resp)
}

func (c *ReservationClient) SubmitConfirmation(ctx context.Context, req *model.ConfirmationRequest) (string, error) {
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/confirmations", req, requesterHeader(req.Requester))
	if err != nil {
		return "", err
	}
	return decodeAccepted(resp)
}

func (c *ReservationClient) FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error) {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = strconv.Itoa(s)
	}
	q := url.Values{}
	q.Set("requester", requester)
	q.Set("slots", strings.Join(parts, ","))

	resp, err := c.httpClient.GET(ctx, "/api/v1/holds/lookup?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, reserrors.ErrHoldNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hold lookup failed with status %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var body struct {
		Data model.Hold `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("failed to decode hold: %w", err)
	}
	return &body.Data, nil
}

func (c *ReservationClient) Snapshot(ctx context.Context) (model.Snapshot, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/snapshot")
	if err != nil {
		return model.Snapshot{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return model.Snapshot{}, fmt.Errorf("snapshot failed with status %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var body struct {
		Data model.Snapshot `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return body.Data, nil
}

func requesterHeader(requester string) map[string]string {
	return map[string]string{RequesterHeader: requester}
}

func decodeAccepted(resp *Response) (string, error) {
	switch resp.StatusCode {
	case http.StatusAccepted:
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", reserrors.ErrQueueFull, GetErrorMessage(resp))
	case http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: %s", reserrors.ErrEngineStopped, GetErrorMessage(resp))
	default:
		return "", fmt.Errorf("submission failed with status %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var body acceptedResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return "", fmt.Errorf("failed to decode submission response: %w", err)
	}
	return body.Data.RequestID, nil
}
