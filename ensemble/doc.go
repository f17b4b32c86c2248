/*
Package ensemble turns an ensemble of frames (or a precomputed covariance
matrix) into force constants between the residues of a segment.

A Window accumulates the displacement vectors of one segment over the frames
of one ensemble window. Its Sample holds the mean displacement, the
covariance about that mean and the force constants derived from the
covariance. Statistics folds the samples of successive windows into running
averages and is frozen into Averages once all windows have been added.

Force constants and distances are kept in two symmetric matrices. Packed
produces the single matrix layout (force constants below the diagonal,
distances above it) used by output files.
*/
package ensemble
