package db

import (
	"github.com/google/uuid"
	"github.com/vikstrous/dataloadgen"
)

type dataLoaderKey string

const (
	DataLoaderKeyTrip dataLoaderKey = "trip_data_loader"
)

// TripDataLoader batches point reads of trip documents. One instance
// is injected per request by the web layer.
type TripDataLoader struct {
	GetTrip *dataloadgen.Loader[uuid.UUID, *Trip]
}

func NewTripDataLoader(dbWrapper TripDBWrapper) *TripDataLoader {
	return &TripDataLoader{
		GetTrip: dataloadgen.NewMappedLoader(dbWrapper.DataLoaderGetTrips),
	}
}
