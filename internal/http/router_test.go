package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/backend"
	"ridebook/internal/infra"
	"ridebook/internal/logger"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/location"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/ride"
	"ridebook/internal/modules/tracking"
	"ridebook/internal/types"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.FirebaseToken, error) {
	return &infra.FirebaseToken{UID: "uid-" + raw}, nil
}

var (
	aSt  = types.Location{Address: "A St", Latitude: 25.033, Longitude: 121.565}
	bAve = types.Location{Address: "B Ave", Latitude: 25.047, Longitude: 121.531}
)

// fakeAuthority serves the ride authority endpoints for one ride. Only the
// token that created the ride may read it.
type fakeAuthority struct {
	mu     sync.Mutex
	ride   *backend.RideDTO
	status string
	owner  string
}

func f64(v float64) *float64 { return &v }

func economyFare() backend.FareDTO {
	return backend.FareDTO{
		RideClass: "economy", BaseFare: f64(5), DistanceFare: f64(8), TimeFare: f64(3),
		SurgeFare: f64(0), SurgeMultiplier: f64(1), Taxes: f64(1.2), Discount: f64(0), Total: f64(17.2),
	}
}

func (f *fakeAuthority) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rides/estimate-fare", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]backend.FareDTO{economyFare()})
	})
	mux.HandleFunc("POST /rides", func(w http.ResponseWriter, r *http.Request) {
		var req backend.CreateRideRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		now := time.Now().UTC()
		f.mu.Lock()
		f.status = "pending"
		f.owner = r.Header.Get("Authorization")
		f.ride = &backend.RideDTO{
			ID:                  "ride-1",
			PickupLocation:      req.Pickup,
			DestinationLocation: req.Destination,
			Fare:                economyFare(),
			PaymentMethod:       req.PaymentMethod,
			Passengers:          req.Passengers,
			Notes:               req.Notes,
			Timestamps:          backend.TimestampsDTO{Requested: &now},
		}
		f.writeRide(w)
		f.mu.Unlock()
	})
	mux.HandleFunc("GET /rides/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.ride == nil || r.PathValue("id") != f.ride.ID || r.Header.Get("Authorization") != f.owner {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Ride not found"})
			return
		}
		f.writeRide(w)
	})
	mux.HandleFunc("PATCH /rides/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != f.owner {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Ride not found"})
			return
		}
		now := time.Now().UTC()
		f.status = "cancelled"
		f.ride.Timestamps.CancelledAt = &now
		f.writeRide(w)
	})
	return mux
}

// writeRide must be called with mu held.
func (f *fakeAuthority) writeRide(w http.ResponseWriter) {
	d := *f.ride
	d.Status = f.status
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

type harness struct {
	router   *gin.Engine
	registry *tracking.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	authority := httptest.NewServer((&fakeAuthority{}).handler())
	t.Cleanup(authority.Close)
	client := backend.New(authority.URL, time.Second, log)

	base, cancel := context.WithCancel(context.Background())
	rides := ride.NewStore(client)
	registry := tracking.NewRegistry(base, tracking.NewSyncer(rides, nil, time.Hour, log))
	t.Cleanup(func() {
		registry.Close()
		cancel()
	})

	return &harness{registry: registry, router: NewRouter(Deps{
		Verifier:  stubVerifier{},
		Fares:     pricing.NewStore(client),
		Booking:   booking.NewService(client, log),
		Rides:     ride.NewService(rides, nil, log),
		Registry:  registry,
		Locations: location.NewService(nil, nil, log),
		Currency:  "USD",
		Log:       log,
	})}
}

func (h *harness) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code
}

type viewBody struct {
	Ride   ride.ReadModel `json:"ride"`
	Loaded bool           `json:"loaded"`
	Notice string         `json:"notice"`
}

func TestRouter_BookWatchCancel(t *testing.T) {
	h := newHarness(t)

	var quote struct {
		State     pricing.State          `json:"state"`
		Estimate  *pricing.FareEstimate  `json:"estimate"`
		Breakdown []pricing.BreakdownRow `json:"breakdown"`
	}
	code := h.do(t, http.MethodPost, "/api/fares/estimate", "t1",
		map[string]any{"pickup": aSt, "destination": bAve, "rideClass": "economy"}, &quote)
	if code != http.StatusOK || quote.State != pricing.StateReady || quote.Estimate.Total != 17.2 {
		t.Fatalf("estimate: %d %+v", code, quote)
	}
	if len(quote.Breakdown) != 5 {
		t.Fatalf("expected 5 fare rows, got %d", len(quote.Breakdown))
	}

	form := booking.Form{Pickup: aSt, Destination: bAve, RideClass: pricing.ClassEconomy, PaymentMethod: ride.PaymentCard, Passengers: 1}
	var created ride.ReadModel
	if code := h.do(t, http.MethodPost, "/api/rides", "t1", form, &created); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	if created.RideID != "ride-1" || created.Status != ride.StatusPending || created.StatusLabel != "Pending" {
		t.Fatalf("unexpected created ride %+v", created)
	}
	if code := h.do(t, http.MethodPost, "/api/rides", "t1", form, nil); code != http.StatusConflict {
		t.Fatalf("a submitted estimate must not be reused, got %d", code)
	}

	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/watch", "t1", nil, nil); code != http.StatusAccepted {
		t.Fatalf("watch: %d", code)
	}
	var view viewBody
	deadline := time.Now().Add(2 * time.Second)
	for !view.Loaded {
		if time.Now().After(deadline) {
			t.Fatal("ride view never loaded")
		}
		h.do(t, http.MethodGet, "/api/rides/ride-1", "t1", nil, &view)
		time.Sleep(5 * time.Millisecond)
	}
	if view.Ride.Status != ride.StatusPending || len(view.Ride.AllowedActions) != 1 || view.Ride.AllowedActions[0] != ride.ActionCancel {
		t.Fatalf("unexpected view %+v", view.Ride)
	}

	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/cancel", "t1", map[string]string{"reason": "changed plans"}, &view); code != http.StatusOK {
		t.Fatalf("cancel: %d", code)
	}
	if view.Ride.Status != ride.StatusCancelled || view.Ride.Timestamps.CancelledAt == nil {
		t.Fatalf("unexpected cancelled view %+v", view.Ride)
	}
	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/cancel", "t1", nil, nil); code != http.StatusConflict {
		t.Fatalf("second cancel should conflict, got %d", code)
	}

	if code := h.do(t, http.MethodDelete, "/api/rides/ride-1/watch", "t1", nil, nil); code != http.StatusNoContent {
		t.Fatalf("unwatch: %d", code)
	}
	if code := h.do(t, http.MethodGet, "/api/rides/ride-1", "t1", nil, nil); code != http.StatusNotFound {
		t.Fatalf("released ride should not be served, got %d", code)
	}
}

func (h *harness) book(t *testing.T, token string) {
	t.Helper()
	if code := h.do(t, http.MethodPost, "/api/fares/estimate", token,
		map[string]any{"pickup": aSt, "destination": bAve, "rideClass": "economy"}, nil); code != http.StatusOK {
		t.Fatalf("estimate: %d", code)
	}
	form := booking.Form{Pickup: aSt, Destination: bAve, RideClass: pricing.ClassEconomy, PaymentMethod: ride.PaymentCard, Passengers: 1, Notes: "gate code 4512"}
	if code := h.do(t, http.MethodPost, "/api/rides", token, form, nil); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
}

func (h *harness) waitLoaded(t *testing.T, token, id string) viewBody {
	t.Helper()
	var view viewBody
	deadline := time.Now().Add(2 * time.Second)
	for !view.Loaded {
		if time.Now().After(deadline) {
			t.Fatal("ride view never loaded")
		}
		h.do(t, http.MethodGet, "/api/rides/"+id, token, nil, &view)
		time.Sleep(5 * time.Millisecond)
	}
	return view
}

func TestRouter_ViewsArePerCaller(t *testing.T) {
	h := newHarness(t)
	h.book(t, "alice")
	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/watch", "alice", nil, nil); code != http.StatusAccepted {
		t.Fatalf("watch: %d", code)
	}
	if view := h.waitLoaded(t, "alice", "ride-1"); view.Ride.Notes != "gate code 4512" {
		t.Fatalf("alice should see her ride, got %+v", view.Ride)
	}

	if code := h.do(t, http.MethodGet, "/api/rides/ride-1", "bob", nil, nil); code != http.StatusNotFound {
		t.Fatalf("bob read alice's view: %d", code)
	}
	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/cancel", "bob", nil, nil); code != http.StatusNotFound {
		t.Fatalf("bob cancelled through alice's view: %d", code)
	}
	if code := h.do(t, http.MethodDelete, "/api/rides/ride-1/watch", "bob", nil, nil); code != http.StatusNotFound {
		t.Fatalf("bob released alice's watch: %d", code)
	}

	// Bob's own watch syncs with his token, which the authority refuses.
	if code := h.do(t, http.MethodPost, "/api/rides/ride-1/watch", "bob", nil, nil); code != http.StatusAccepted {
		t.Fatalf("bob watch: %d", code)
	}
	bob, _, ok := h.registry.Lookup("uid-bob", "ride-1")
	if !ok {
		t.Fatal("bob's watch should be held")
	}
	deadline := time.Now().Add(2 * time.Second)
	for bob.Fatal() != ride.FatalNotFound {
		if time.Now().After(deadline) {
			t.Fatal("bob's sync was not refused by the authority")
		}
		time.Sleep(5 * time.Millisecond)
	}
	var bobView viewBody
	if code := h.do(t, http.MethodGet, "/api/rides/ride-1", "bob", nil, &bobView); code != http.StatusOK || bobView.Loaded || bobView.Ride.Notes != "" {
		t.Fatalf("bob's view must not carry alice's ride: %d %+v", code, bobView)
	}

	if h.registry.Len() != 2 {
		t.Fatalf("expected one view per caller, got %d", h.registry.Len())
	}
	if _, _, ok := h.registry.Lookup("uid-alice", "ride-1"); !ok {
		t.Fatal("alice's view should still be held")
	}
	if code := h.do(t, http.MethodGet, "/api/rides/ride-1", "alice", nil, nil); code != http.StatusOK {
		t.Fatalf("alice lost her view: %d", code)
	}
}

func TestRouter_SubmitWithoutEstimate(t *testing.T) {
	h := newHarness(t)
	form := booking.Form{Pickup: aSt, Destination: bAve, RideClass: pricing.ClassEconomy, PaymentMethod: ride.PaymentCard, Passengers: 1}
	if code := h.do(t, http.MethodPost, "/api/rides", "t2", form, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 without an estimate, got %d", code)
	}

	form.PaymentMethod = ""
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if code := h.do(t, http.MethodPost, "/api/rides", "t2", form, &body); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid form, got %d", code)
	}
	if body.Fields["paymentMethod"] == "" {
		t.Fatalf("expected paymentMethod to be flagged, got %v", body.Fields)
	}
}

func TestRouter_AuthAndMisc(t *testing.T) {
	h := newHarness(t)
	if code := h.do(t, http.MethodGet, "/health", "", nil, nil); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	if code := h.do(t, http.MethodGet, "/api/locations/recent", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := h.do(t, http.MethodGet, "/api/locations/recent", "t3", nil, nil); code != http.StatusOK {
		t.Fatalf("recent: %d", code)
	}
	if code := h.do(t, http.MethodGet, "/api/locations/search?q=cafe", "t3", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("search without geocoder: %d", code)
	}
	if code := h.do(t, http.MethodPost, "/api/assist/draft", "t3", map[string]string{"message": "home"}, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("draft without assistant: %d", code)
	}
	var allowance struct {
		Remaining int `json:"remaining"`
	}
	if code := h.do(t, http.MethodGet, "/api/assist/allowance", "t3", nil, &allowance); code != http.StatusOK || allowance.Remaining != -1 {
		t.Fatalf("unmetered allowance: %d %+v", code, allowance)
	}
	if code := h.do(t, http.MethodGet, "/api/rides/bad$id", "t3", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid id: %d", code)
	}
}
