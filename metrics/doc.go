// Package metrics provides Prometheus instrumentation for reelmaker.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "reelmaker_". Mount promhttp.Handler() to expose them.
//
// Composition jobs report their terminal state through JobsTotal
// ("success", "failed", "canceled") and every pipeline state change through
// StageTransitionsTotal. The encoder runner in utils records one observation
// per ffmpeg invocation.
package metrics
