// Package model defines the reconciled view types (orders, trades) and the
// defensive decoding of raw feed events.
//
// The upstream producer's schema has drifted across versions: field names
// vary, numerics arrive as strings, timestamps switch between seconds and
// milliseconds. Decoding here never fails on a well-formed JSON object;
// worst case is a zeroed or defaulted field.
package model
