package dedupe

import (
	"context"

	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/store"
)

// ClusterAssignment is the outcome of attaching a claim to a cluster.
type ClusterAssignment struct {
	ClusterID        int64
	CanonicalClaimID int64

	// Assigned is false when the claim was already a member (idempotent
	// re-assignment, including lost races).
	Assigned bool
}

// AssignCluster implements the SC/CCS rule: idempotent return for already
// clustered claims, join the best match's cluster when the similarity
// clears the join threshold, otherwise create a new cluster with the claim
// as its own canonical. It is safe to re-run for a claim left unclustered
// by a crash between the claim and assignment transactions.
func (e *Engine) AssignCluster(ctx context.Context, claimID int64, bestMatchID *int64, bestMatchSimilarity float64) (*ClusterAssignment, error) {
	member, err := e.store.GetClusterMembership(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return e.existingAssignment(ctx, member)
	}

	if bestMatchID != nil && bestMatchSimilarity >= e.joinThreshold {
		return e.joinBestMatch(ctx, claimID, *bestMatchID, bestMatchSimilarity)
	}

	return e.createOwnCluster(ctx, claimID)
}

// existingAssignment resolves an existing membership to its cluster.
func (e *Engine) existingAssignment(ctx context.Context, member *store.ClusterMember) (*ClusterAssignment, error) {
	cluster, err := e.store.GetCluster(ctx, member.ClusterID)
	if err != nil {
		return nil, err
	}
	if cluster == nil {
		return nil, errors.Errorf("claim %d is member of missing cluster %d", member.ClaimID, member.ClusterID)
	}
	return &ClusterAssignment{
		ClusterID:        cluster.ID,
		CanonicalClaimID: cluster.CanonicalClaimID,
		Assigned:         false,
	}, nil
}

// joinBestMatch adds the claim to the best match's cluster, creating that
// cluster first when the best match is itself unclustered (a stored claim
// without membership).
func (e *Engine) joinBestMatch(ctx context.Context, claimID, bestMatchID int64, similarity float64) (*ClusterAssignment, error) {
	bestMember, err := e.store.GetClusterMembership(ctx, bestMatchID)
	if err != nil {
		return nil, err
	}

	var clusterID int64
	if bestMember != nil {
		clusterID = bestMember.ClusterID
	} else {
		cluster, err := e.store.CreateClusterWithCanonical(ctx, bestMatchID)
		switch {
		case err == nil:
			clusterID = cluster.ID
		case errors.Is(err, store.ErrAlreadyExists):
			// Another session clustered the best match first.
			bestMember, err = e.store.GetClusterMembership(ctx, bestMatchID)
			if err != nil {
				return nil, err
			}
			if bestMember == nil {
				return nil, errors.Errorf("claim %d lost cluster race but has no membership", bestMatchID)
			}
			clusterID = bestMember.ClusterID
		default:
			return nil, err
		}
	}

	inserted, err := e.store.AddClusterMember(ctx, &store.ClusterMember{
		ClusterID:  clusterID,
		ClaimID:    claimID,
		Similarity: similarity,
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the membership race for claimID; return the winner's state.
		member, err := e.store.GetClusterMembership(ctx, claimID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, errors.Errorf("claim %d lost membership race but has no membership", claimID)
		}
		return e.existingAssignment(ctx, member)
	}

	cluster, err := e.store.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	if cluster == nil {
		return nil, errors.Errorf("cluster %d vanished during assignment", clusterID)
	}
	return &ClusterAssignment{
		ClusterID:        cluster.ID,
		CanonicalClaimID: cluster.CanonicalClaimID,
		Assigned:         true,
	}, nil
}

// createOwnCluster makes the claim canonical of a fresh cluster.
func (e *Engine) createOwnCluster(ctx context.Context, claimID int64) (*ClusterAssignment, error) {
	cluster, err := e.store.CreateClusterWithCanonical(ctx, claimID)
	if err == nil {
		return &ClusterAssignment{
			ClusterID:        cluster.ID,
			CanonicalClaimID: claimID,
			Assigned:         true,
		}, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, err
	}

	member, err := e.store.GetClusterMembership(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errors.Errorf("claim %d lost cluster race but has no membership", claimID)
	}
	return e.existingAssignment(ctx, member)
}
