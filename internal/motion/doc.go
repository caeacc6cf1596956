// Package motion holds the shared core of the dataset converters: an
// in-memory table of named numeric columns, the unit/handedness normalizer,
// the pose-matrix decoder, and the multi-device frame assembler.
//
// Every dataset adapter produces a Recording whose table is normalized to
// centimeters and right-up-forward coordinates before it is written out.
// Nothing in this package knows about a particular dataset's schema.
package motion
