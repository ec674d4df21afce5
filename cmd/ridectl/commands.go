package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"ridebook/internal/backend"
	"ridebook/internal/config"
	"ridebook/internal/maps"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/location"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/ride"
	"ridebook/internal/modules/tracking"
	"ridebook/internal/types"
)

type app struct {
	cfg    config.Config
	log    *logrus.Logger
	client *backend.Client
	out    io.Writer
}

func newApp(cfg config.Config, log *logrus.Logger) *app {
	return &app{
		cfg:    cfg,
		log:    log,
		client: backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log.WithField("component", "backend")),
		out:    os.Stdout,
	}
}

// routeFlags are shared by estimate and book.
type routeFlags struct {
	pickup, pickupAt           string
	destination, destinationAt string
	class                      string
	token                      string
}

func (r *routeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&r.pickup, "pickup", "", "pickup address")
	fs.StringVar(&r.pickupAt, "pickup-at", "", "pickup coordinates as lat,lng (skips geocoding)")
	fs.StringVar(&r.destination, "destination", "", "destination address")
	fs.StringVar(&r.destinationAt, "destination-at", "", "destination coordinates as lat,lng (skips geocoding)")
	fs.StringVar(&r.class, "class", string(pricing.ClassEconomy), "ride class: economy, premium or luxury")
	fs.StringVar(&r.token, "token", os.Getenv("RIDEBOOK_TOKEN"), "bearer token for the ride authority")
}

func (a *app) resolve(ctx context.Context, r *routeFlags) (types.Location, types.Location, error) {
	var resolver location.Resolver
	if a.cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocoder(a.cfg.Maps.APIKey)
		if err != nil {
			return types.Location{}, types.Location{}, err
		}
		resolver = geo
	}
	svc := location.NewService(nil, resolver, a.log)

	pickup, err := place(r.pickup, r.pickupAt)
	if err != nil {
		return types.Location{}, types.Location{}, fmt.Errorf("pickup: %w", err)
	}
	destination, err := place(r.destination, r.destinationAt)
	if err != nil {
		return types.Location{}, types.Location{}, fmt.Errorf("destination: %w", err)
	}
	if pickup, err = svc.Resolve(ctx, pickup); err != nil {
		return types.Location{}, types.Location{}, fmt.Errorf("pickup: %w", err)
	}
	if destination, err = svc.Resolve(ctx, destination); err != nil {
		return types.Location{}, types.Location{}, fmt.Errorf("destination: %w", err)
	}
	return pickup, destination, nil
}

func place(address, at string) (types.Location, error) {
	loc := types.Location{Address: strings.TrimSpace(address)}
	if at == "" {
		return loc, nil
	}
	lat, lng, ok := strings.Cut(at, ",")
	if !ok {
		return loc, fmt.Errorf("coordinates %q are not lat,lng", at)
	}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return loc, fmt.Errorf("latitude: %w", err)
	}
	if loc.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return loc, fmt.Errorf("longitude: %w", err)
	}
	if loc.Address == "" {
		loc.Address = at
	}
	return loc, nil
}

func (a *app) quote(ctx context.Context, r *routeFlags) (*pricing.Estimator, pricing.Quote, error) {
	pickup, destination, err := a.resolve(ctx, r)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	e := pricing.NewEstimator(pricing.NewStore(a.client), a.log)
	q := e.Estimate(ctx, pickup, destination, pricing.RideClass(r.class))
	if q.State != pricing.StateReady {
		return e, q, errors.New("fare estimate unavailable")
	}
	return e, q, nil
}

func (a *app) printFare(f pricing.FareEstimate) {
	fmt.Fprintf(a.out, "%s\n", f.RideClass)
	for _, row := range pricing.BreakdownRows(f, a.cfg.Currency) {
		fmt.Fprintf(a.out, "  %-16s %10s\n", row.Label, row.Display)
	}
}

func (a *app) estimate(ctx context.Context, args []string) error {
	var r routeFlags
	fs := pflag.NewFlagSet("estimate", pflag.ContinueOnError)
	r.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx = backend.WithToken(ctx, r.token)

	e, _, err := a.quote(ctx, &r)
	if err != nil {
		return err
	}
	for _, f := range e.All() {
		a.printFare(f)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	var (
		r          routeFlags
		payment    string
		passengers int
		notes      string
		at         string
	)
	fs := pflag.NewFlagSet("book", pflag.ContinueOnError)
	r.register(fs)
	fs.StringVar(&payment, "payment", string(ride.PaymentCard), "payment method: cash, card or wallet")
	fs.IntVarP(&passengers, "passengers", "n", 1, "passenger count (1-4)")
	fs.StringVar(&notes, "notes", "", "notes for the driver")
	fs.StringVar(&at, "at", "", "scheduled pickup time, RFC3339")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx = backend.WithToken(ctx, r.token)

	_, q, err := a.quote(ctx, &r)
	if err != nil {
		return err
	}
	a.printFare(*q.Estimate)

	form := booking.Form{
		Pickup:        q.Key.Pickup,
		Destination:   q.Key.Destination,
		RideClass:     q.Key.RideClass,
		PaymentMethod: ride.PaymentMethod(payment),
		Passengers:    passengers,
		Notes:         notes,
	}
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		form.ScheduledTime = &t
	}

	created, err := booking.NewService(a.client, a.log).Submit(ctx, form, q)
	var se *booking.SubmitError
	if errors.As(err, &se) {
		return errors.New(se.Message)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ride %s requested (%s)\n", created.ID, created.Status.Label())
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	var token string
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.StringVar(&token, "token", os.Getenv("RIDEBOOK_TOKEN"), "bearer token for the ride authority")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("watch needs exactly one ride id")
	}
	ctx = backend.WithToken(ctx, token)

	view := ride.NewView(types.ID(fs.Arg(0)))
	syncer := tracking.NewSyncer(ride.NewStore(a.client), nil, a.cfg.Sync.Period, a.log)
	sess := syncer.Start(ctx, view)
	defer sess.Stop()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	var last ride.Status
	for {
		select {
		case <-sess.Done():
			a.printStatus(view, &last)
			if view.Fatal() == ride.FatalNotFound {
				return errors.New("ride not found")
			}
			return nil
		case <-ticker.C:
			a.printStatus(view, &last)
		}
	}
}

func (a *app) printStatus(view *ride.View, last *ride.Status) {
	rm, ok := view.ReadModel(a.cfg.Currency)
	if !ok || rm.Status == *last {
		return
	}
	*last = rm.Status
	fmt.Fprintf(a.out, "%s  %s\n", time.Now().Format("15:04:05"), rm.StatusLabel)
	if rm.Driver != nil && rm.Status != ride.StatusCompleted && rm.Status != ride.StatusCancelled {
		fmt.Fprintf(a.out, "  driver %s %s\n", rm.Driver.Name, rm.Driver.VehiclePlate)
	}
}
