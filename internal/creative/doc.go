// Package creative orchestrates template selection, compositing, and
// naming into finished creative batches on disk.
//
// Output lands under <output>/<locale>_<site>/ with deterministic
// date-plus-suffix names. Empty eligible sets produce empty batches, not
// errors, and individual template failures never abort the rest of the
// batch.
package creative
