// Package sanitizer normalizes free-form identifiers before they are compared.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input yields an empty string rather than an error,
// leaving rejection to validation.
package sanitizer
