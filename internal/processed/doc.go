// Package processed tracks which videos have already been handled so
// scan cycles and restarts never pick up the same video twice.
package processed
