// Package httputil holds small HTTP helpers shared by the service clients.
//
// # Retry
//
// [Retry] runs an operation up to a fixed number of times with exponential
// backoff. Only errors wrapped in [RetryableError] are retried, so callers
// decide which failures are transient:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    if resp.StatusCode >= 500 {
//	        return &httputil.RetryableError{Err: fmt.Errorf("status %d", resp.StatusCode)}
//	    }
//	    return nil
//	})
//
// The XRPC client in pkg/atproto retries queries this way and never retries
// procedures, which are not idempotent. A Retry-After header on a 5xx reply
// replaces the backoff delay for that attempt, see [RetryAfter].
package httputil
