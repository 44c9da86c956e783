// Package instagram provides a client for Instagram's web API.
//
// The client authenticates with a browser session (sessionid, csrftoken and
// ds_user_id cookies) and fetches a profile in two requests: the
// web_profile_info endpoint for profile metadata and the user feed endpoint
// for recent media. The result is returned unnormalized as a
// RawProfilePayload.
//
// Example usage:
//
//	client := instagram.NewClient(cfg.Instagram, ratelimit.NewTokenBucket(30, 2), log)
//
//	raw, err := client.FetchProfile(ctx, "username")
//	if err != nil {
//	    switch errors.TypeOf(err) {
//	    case errors.ErrorTypeAuth:
//	        // Session cookies expired
//	    case errors.ErrorTypeNotFound:
//	        // Profile does not exist or is private
//	    }
//	}
package instagram
