// Package core holds HTTP error values shared by the transport packages.
//
// An HTTPError pairs a status code with a stable key. Handlers return
// domain errors; error handlers translate them into HTTPError values and
// render the key as the error code of the response.
package core
