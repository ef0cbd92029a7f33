// Package feed discovers new videos by polling YouTube channel RSS
// feeds and filtering entries against the processed-video store.
package feed
