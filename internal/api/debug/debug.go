// Package debug provides the debug mux with pprof and expvar handlers. The
// expectation is that the mux is only bound to a private port.
package debug

import (
	"expvar"
	"net/http"
	"net/http/pprof"
)

// Mux registers all the debug routes from the standard library into a new
// mux bypassing the use of the DefaultServeMux.
func Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}
