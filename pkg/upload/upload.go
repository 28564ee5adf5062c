// Package upload models the Plexus upload collaborator contract (§6):
// the interface a caller implements to ship rendered slices and
// provenance records to an external store, plus a generic retry
// wrapper. No HTTP client ships here — that remains the caller's
// responsibility, following spec.md's non-goal on outer transport.
package upload

import (
	"context"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/logging"
)

// File is one attachment to upload: its form-field name, the filename
// Plexus should record, and its content.
type File struct {
	Field    string
	Name     string
	Contents []byte
}

// Result is the outcome of a successful upload, mirroring the
// (status, reason, body) triple `Connection.post_form` returns.
type Result struct {
	Status int
	Reason string
	Body   string
}

// Client uploads one file to a named sample within a project. mtime is
// the originating data's modification time, formatted the way the
// caller's server expects (Plexus takes seconds-since-epoch as a
// string); description is free text attached to the upload.
type Client interface {
	Upload(ctx context.Context, project, sample, mtime string, file File, description string, replace bool) (Result, error)
}

// NopClient is a Client test double that records every call it
// receives and returns a canned Result/error.
type NopClient struct {
	Result Result
	Err    error
	Calls  []NopCall
}

// NopCall captures one Upload invocation's arguments.
type NopCall struct {
	Project     string
	Sample      string
	Mtime       string
	File        File
	Description string
	Replace     bool
}

func (c *NopClient) Upload(_ context.Context, project, sample, mtime string, file File, description string, replace bool) (Result, error) {
	c.Calls = append(c.Calls, NopCall{project, sample, mtime, file, description, replace})
	return c.Result, c.Err
}

// RetryingClient wraps a Client with the fixed-wait retry policy of
// §6 / `Connection.post_form`: on error, wait RetryWait and try again,
// up to RetryLimit attempts total.
type RetryingClient struct {
	Inner      Client
	RetryLimit int
	RetryWait  time.Duration
	Logger     *logging.Logger
}

// NewRetryingClient wraps inner with the default Plexus retry policy:
// 10 attempts, 300 seconds apart.
func NewRetryingClient(inner Client, logger *logging.Logger) *RetryingClient {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RetryingClient{
		Inner:      inner,
		RetryLimit: 10,
		RetryWait:  300 * time.Second,
		Logger:     logger.Named("upload"),
	}
}

func (c *RetryingClient) Upload(ctx context.Context, project, sample, mtime string, file File, description string, replace bool) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= c.RetryLimit; attempt++ {
		res, err := c.Inner.Upload(ctx, project, sample, mtime, file, description, replace)
		if err == nil {
			return res, nil
		}
		lastErr = err
		c.Logger.Error(err, "upload attempt failed", "attempt", attempt, "limit", c.RetryLimit)

		if attempt == c.RetryLimit {
			break
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(c.RetryWait):
		}
		c.Logger.Debug("retrying upload", "attempt", attempt+1)
	}
	return Result{}, lastErr
}
