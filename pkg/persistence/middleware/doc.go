// Package middleware wraps snapshot stores with encryption at rest and masking of
// sensitive model fields.
package middleware
