//go:build !epsilon_compare

package patch

const epsilonCompare = false
