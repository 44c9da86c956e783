// Package ratelimit throttles outbound calls to Instagram and the inference
// API. TokenBucket is backed by golang.org/x/time/rate and refills
// continuously; Unlimited is used when limiting is switched off.
//
//	limiter := ratelimit.NewTokenBucket(30, 2) // 30 rpm, bursts of 2
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
