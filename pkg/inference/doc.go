// Package inference talks to the Gemini generateContent API to tag post
// images and infer audience demographics.
//
// Every call passes through a token bucket limiter and a circuit breaker. A
// failed call returns an error of type inference_failure; callers decide
// whether to absorb it.
package inference
