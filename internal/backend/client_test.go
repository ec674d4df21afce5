package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

const rideJSON = `{
	"id": "r1",
	"status": "pending",
	"pickupLocation": {"address": "A St", "latitude": 1.5, "longitude": 2.5},
	"destinationLocation": {"address": "B Ave", "latitude": 1.6, "longitude": 2.6},
	"fare": {"rideClass": "economy", "baseFare": 5, "distanceFare": 8, "timeFare": 3, "surgeFare": 0,
		"surgeMultiplier": 1, "taxes": 1.2, "discount": 0, "total": 17.2, "distanceMeters": 4200, "durationMinutes": 12},
	"paymentMethod": "card",
	"passengers": 1,
	"timestamps": {"requested": "2026-10-16T10:00:00Z"}
}`

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, quietLogger())
}

func TestGetRide_DecodesAndForwardsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rides/r1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		_, _ = io.WriteString(w, rideJSON)
	})

	ride, err := c.GetRide(WithToken(context.Background(), "tok"), "r1")
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if ride.ID != "r1" || ride.Status != "pending" || *ride.Fare.Total != 17.2 {
		t.Fatalf("unexpected ride: %+v", ride)
	}
}

func TestGetRide_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Ride not found"}`)
	})

	_, err := c.GetRide(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if Message(err) != "Ride not found" {
		t.Fatalf("expected authority message, got %q", Message(err))
	}
}

func TestGetRide_MissingFieldIsParseError(t *testing.T) {
	body := strings.Replace(rideJSON, `"total": 17.2, `, "", 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})

	_, err := c.GetRide(context.Background(), "r1")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(pe.Field, "Total") {
		t.Fatalf("expected field to name Total, got %q", pe.Field)
	}
}

func TestGetRide_UnknownStatusIsParseError(t *testing.T) {
	body := strings.Replace(rideJSON, `"status": "pending"`, `"status": "PENDING"`, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})

	_, err := c.GetRide(context.Background(), "r1")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestGetRide_WrongTypeIsParseError(t *testing.T) {
	body := strings.Replace(rideJSON, `"passengers": 1`, `"passengers": "one"`, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})

	_, err := c.GetRide(context.Background(), "r1")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "passengers" {
		t.Fatalf("expected ParseError on passengers, got %v", err)
	}
}

func TestEstimateFare_SendsClassesAndValidatesItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req EstimateFareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.RideClasses) != 3 {
			t.Errorf("expected 3 classes, got %v", req.RideClasses)
		}
		_, _ = io.WriteString(w, `[{"rideClass":"economy","baseFare":5,"distanceFare":8,"timeFare":3,"surgeFare":0,
			"surgeMultiplier":0.5,"taxes":1.2,"discount":0,"total":17.2}]`)
	})

	lat, lng := 1.0, 2.0
	loc := LocationDTO{Address: "A", Latitude: &lat, Longitude: &lng}
	_, err := c.EstimateFare(context.Background(), EstimateFareRequest{
		Pickup: loc, Destination: loc, RideClasses: []string{"economy", "premium", "luxury"},
	})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for surge multiplier < 1, got %v", err)
	}
}

func TestCancelRide_ServerErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/rides/r1/cancel" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CancelRide(context.Background(), "r1", CancelRideRequest{Reason: "changed plans"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 || apiErr.Message != "" {
		t.Fatalf("expected bare 500 APIError, got %v", err)
	}
}
