// Package oras wraps the ORAS library with the pull-side registry operations
// needed to fetch ARH/ARD archives.
//
// Client resolves references, fetches manifests and blobs, and produces
// authenticated HTTP clients for ranged blob reads. Credentials come from
// the Docker config, static credentials, or a bearer token.
package oras
