package controller

import "github.com/plgd-dev/go-coap/v3/mux"

type TelemetryController interface {
	Register(w mux.ResponseWriter, r *mux.Message)
	Discover(w mux.ResponseWriter, r *mux.Message)
	Save(w mux.ResponseWriter, r *mux.Message)
}
