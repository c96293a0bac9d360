// Package identity normalizes submitter identities and derives the
// submission archive file name.
//
// Student identities are canonicalized by prepending a prefix character
// (by default "s") when the user omitted it, so "1234567" and "s1234567"
// refer to the same submitter. The archive file name is a pure function of
// the assignment part and the ordered identity list:
//
//	assignment2{A|B}-{primary}[-{secondary}].tar.gz
package identity
