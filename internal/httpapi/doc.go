// Package httpapi exposes the catalog workflow over HTTP with a chi router.
//
// Every request gets an X-Request-ID that is threaded into the request
// context and the structured logs. Errors are returned as {"error": "..."}
// with the status derived from the services error markers: not found maps to
// 404, validation to 400 and everything else to 500.
package httpapi
