// Package naming provides consistent naming functions for provisioned resources.
//
// Queue names follow the pattern {prefix}_{name}_{suffix}. Trigger
// infrastructure (rule, role, policy) is named {prefix}-worker-trigger[-kind],
// and each periodic trigger is named {rule}-{trigger}.
package naming
