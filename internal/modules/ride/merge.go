package ride

import "time"

// Merge folds a freshly fetched ride into the locally held copy.
//
// Populated timestamps are never cleared or overwritten. A locally terminal
// status is kept. Otherwise the remote status is taken unless it ranks
// below the local one (a stale response); cancellation always applies.
// A local rating survives a remote copy that lacks one.
func Merge(local, remote Ride) Ride {
	out := remote
	out.ID = local.ID
	if out.ID == "" {
		out.ID = remote.ID
	}

	switch {
	case local.Status.IsTerminal():
		out.Status = local.Status
	case remote.Status == StatusCancelled:
	case remote.Status.rank() < local.Status.rank():
		out.Status = local.Status
	}

	out.Timestamps = mergeTimestamps(local.Timestamps, remote.Timestamps)
	if out.Rating == nil && local.Rating != nil {
		out.Rating = local.Rating
	}
	if out.Driver == nil && local.Driver != nil {
		out.Driver = local.Driver
	}
	return out
}

func mergeTimestamps(local, remote Timestamps) Timestamps {
	return Timestamps{
		Requested:      keep(local.Requested, remote.Requested),
		Accepted:       keep(local.Accepted, remote.Accepted),
		DriverArriving: keep(local.DriverArriving, remote.DriverArriving),
		PickupTime:     keep(local.PickupTime, remote.PickupTime),
		DropoffTime:    keep(local.DropoffTime, remote.DropoffTime),
		CancelledAt:    keep(local.CancelledAt, remote.CancelledAt),
	}
}

func keep(local, remote *time.Time) *time.Time {
	if local != nil {
		return local
	}
	return remote
}
