// Package api provides the TechOps deployment REST API: the deployment
// matrix, batch dispatch, credential vault operations, and export document
// generation, served under /api/v1.
package api
