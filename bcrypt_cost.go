//go:build !race

package auth

func passwordHashCost() int {
	// High enough to keep brute force throughput in the tens of hashes per
	// second on commodity hardware.
	return 12
}
