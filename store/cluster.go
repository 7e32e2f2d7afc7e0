package store

// Cluster is a set of claims judged semantically equivalent. The canonical
// claim is fixed at creation and never re-elected.
type Cluster struct {
	ID               int64
	CanonicalClaimID int64
}

// ClusterMember relates a claim to its cluster. A claim belongs to at most
// one cluster; the similarity records the score at which it was admitted
// (1.0 for the canonical itself).
type ClusterMember struct {
	ClusterID  int64
	ClaimID    int64
	Similarity float64
}
