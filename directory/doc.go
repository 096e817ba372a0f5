// Package directory provides an in-memory reference implementation of the
// core.LocationDirectory collaborator. Production deployments typically back
// the directory with an external service; this implementation serves tests
// and local simulations.
package directory
