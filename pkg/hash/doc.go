// Package hash provides content digests for roster files.
//
// git-duet records the digest of the roster it resolved identities from
// alongside the cached session. When the pre-commit check later finds a
// different digest it re-resolves the cached initials to decide whether
// the cached identity went stale.
//
// Example usage:
//
//	data, _ := os.ReadFile("/home/jd/.git-authors")
//	digest := hash.MD5Bytes(data)
//	// Returns: "5d41402abc4b2a76b9719d911017c592"
//
//	short := hash.Short(digest)
//	// Returns: "5d41402a"
package hash
