/*
Package protein describes the structural data model: atoms, alpha-carbon
centered residues, secondary structure annotations and the segments (residue
ranges tagged with a structural category) that force constants are estimated
for.

All residue indices exposed by this package are 1-based and ranges are
inclusive.
*/
package protein
