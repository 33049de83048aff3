// Package trscan mounts the static analysis plugin on a net/http mux: the
// builder page, the custom report endpoint, the scanner trigger and the
// report status/download endpoint.
//
// Every route checks the optional Guard first. Requests resolve their user
// through UserFunc; a nil user sees every product.
package trscan
