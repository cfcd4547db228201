// SPDX-License-Identifier: MPL-2.0

// Package issue holds benchsweep's user-facing failure guidance: a catalog of
// Markdown remediation notes rendered with glamour, and ActionableError for
// attaching an operation, a resource and hints to a wrapped error.
package issue
