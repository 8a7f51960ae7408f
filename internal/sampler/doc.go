// Package sampler implements the polling watchers that feed external change
// events into the action queue.
//
// Both watchers are samplers, not subscribers: they compare the current state
// of the world against the previous poll and enqueue one batched action per
// observed difference. The first poll only establishes a baseline. A sampler
// that cannot read its source logs at debug level and stays quiet; missing
// tools or paths never produce events or errors.
package sampler
