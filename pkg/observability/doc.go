/*
Package observability provides tools for monitoring the sticky router.

Everything here plugs into the router as domain.LifecycleHooks: Prometheus metrics
for transitions and parked states, and an audit trail written to a structured logger.
Combine several with LifecycleHooks.Merge.
*/
package observability
