// README: JSON-over-HTTP client for the ride authority (create, get, estimate, cancel, rate).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx; every request made
// with that context forwards it to the authority.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey{}).(string)
	return v
}

type Client struct {
	baseURL string
	httpc   *http.Client
	log     logrus.FieldLogger
}

func New(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) CreateRide(ctx context.Context, req CreateRideRequest) (*RideDTO, error) {
	var out RideDTO
	if err := c.do(ctx, "create ride", http.MethodPost, "/rides", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRide(ctx context.Context, id string) (*RideDTO, error) {
	var out RideDTO
	if err := c.do(ctx, "get ride", http.MethodGet, "/rides/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EstimateFare(ctx context.Context, req EstimateFareRequest) ([]FareDTO, error) {
	var out []FareDTO
	if err := c.do(ctx, "estimate fare", http.MethodPost, "/rides/estimate-fare", req, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if err := validate.Struct(out[i]); err != nil {
			return nil, schemaError("estimate fare", err)
		}
	}
	return out, nil
}

func (c *Client) CancelRide(ctx context.Context, id string, req CancelRideRequest) (*RideDTO, error) {
	var out RideDTO
	if err := c.do(ctx, "cancel ride", http.MethodPatch, "/rides/"+url.PathEscape(id)+"/cancel", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RateDriver(ctx context.Context, id string, req RateDriverRequest) (*RideDTO, error) {
	var out RideDTO
	if err := c.do(ctx, "rate driver", http.MethodPatch, "/rides/"+url.PathEscape(id)+"/rate-driver", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend: build %s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("backend: read %s: %w", op, err)
	}

	c.log.WithFields(logrus.Fields{
		"op":         op,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"latency":    time.Since(start),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.Message
		}
		return apiErr
	}
	return decode(op, data, out)
}

// decode is strict: the body must be valid JSON for out and, for structs,
// satisfy the validate tags. Slices are validated by the caller.
func decode(op string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ParseError{Op: op, Field: typeErr.Field, Err: err}
		}
		return &ParseError{Op: op, Err: err}
	}
	if _, isSlice := out.(*[]FareDTO); isSlice {
		return nil
	}
	if err := validate.Struct(out); err != nil {
		return schemaError(op, err)
	}
	return nil
}

func schemaError(op string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ParseError{Op: op, Field: fe.Namespace(), Err: fmt.Errorf("failed %q rule", fe.Tag())}
	}
	return &ParseError{Op: op, Err: err}
}
