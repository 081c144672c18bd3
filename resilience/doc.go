// Package resilience provides caller-side retries for API calls.
//
// The API layer itself never retries; a caller that wants retries wraps the
// call:
//
//	devices, err := resilience.Retry(ctx, resilience.Attempts(3),
//	    func(ctx context.Context) ([]api.Device, error) {
//	        return client.GetDevices(ctx)
//	    })
//
// By default only transport failures and 5xx responses are retried.
package resilience
