package googleDriveApi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// StorageError is a failed Drive call. Transient errors are worth retrying later,
// permanent ones (revoked token, forbidden) are not.
type StorageError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("drive %s failed (%s): %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a StorageError that may succeed on retry.
func IsTransient(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr) && sErr.Transient
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return externalApi.ErrNotFound
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= http.StatusInternalServerError:
			return &StorageError{Op: op, Transient: true, Err: err}
		default:
			return &StorageError{Op: op, Transient: false, Err: err}
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		transient := retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError
		return &StorageError{Op: op, Transient: transient, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &StorageError{Op: op, Transient: true, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return &StorageError{Op: op, Transient: false, Err: err}
}
