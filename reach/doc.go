/*
Package reach runs the complete REACH analysis of a protein: it collects
force constants of every segment from a trajectory or a covariance matrix,
averages them by structural category, fits the decay of force constants
with distance, and builds and analyzes the normal modes of the resulting
elastic network.

A typical run looks like

	r, err := reach.New(p, segments, opts)
	...
	err = r.AddTrajectory(ctx, src)
	...
	res, err := r.Compute()

The first segment must cover the complete protein.
*/
package reach
