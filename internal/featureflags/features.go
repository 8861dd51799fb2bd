package featureflags

var (
	// AutoWrapExports appends a directive to each instrumented program asking
	// its runtime to also wrap functions exposed on module.exports/globalThis,
	// so callback-style code the static instrumentation pass cannot see is
	// still traced.
	AutoWrapExports = register("AutoWrapExports", true)

	// SaveRawTraces stores the raw parsed trace records for each
	// (case, variant) execution alongside the comparison reports, when a
	// trace store is configured. Useful for diffing runs by hand.
	SaveRawTraces = register("SaveRawTraces", true)
)
