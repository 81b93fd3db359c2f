package internal

import "context"

// Adapter wraps one upstream availability vendor. Implementations keep the
// vendor's raw platform names in ProviderName (normalization happens centrally
// in the aggregate) and tag every record with their own Source. An adapter
// that does not support the query's media type returns an empty list, not an
// error; errors are reserved for transport/payload failures and are absorbed
// by the aggregate as "this source is down".
type Adapter interface {
	// Name returns the adapter's source identity (e.g. for the sources map
	// and registry lookup).
	Name() Source
	FetchAvailability(ctx context.Context, query AvailabilityQuery) ([]PlatformAvailability, error)
}
