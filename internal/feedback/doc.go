// Package feedback defines the request/response contract with the review
// script endpoint and the transports that speak it.
//
// Two transports exist: HTTPTransport talks to a deployed endpoint, and
// MockTransport answers locally with a simulated delay when no endpoint is
// configured. NewTransport picks one once, at construction.
package feedback
