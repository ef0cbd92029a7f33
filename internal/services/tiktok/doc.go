// Package tiktok defines the publishing boundary. Actual uploads are
// delegated to an external browser automation binary that owns session
// state and credentials; the pipeline only observes success or failure.
package tiktok
