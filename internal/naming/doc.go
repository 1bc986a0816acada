// Package naming produces the deterministic creative name sequence used
// for a generated batch: a DDMM date stamp plus a spreadsheet-column
// letter suffix (A, B, ..., Z, AA, AB, ...).
package naming
