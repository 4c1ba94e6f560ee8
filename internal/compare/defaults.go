// Package compare turns a ComparisonResult into a line diff for display.
package compare

// DefaultContextLines is the number of unchanged lines shown around each
// hunk of a unified diff.
const DefaultContextLines = 3

// mediumChangeLines is the number of changed lines above which a body-only
// difference is graded medium rather than low.
const mediumChangeLines = 10
