// Package algorithms holds the reference trace generators: two searches, a sort
// and a heap build. Each one records a Step per comparison or structural change.
package algorithms
