/*
Package fit superposes a set of atoms onto a reference geometry with a
version of the Kabsch algorithm that is described in detail here:
http://cnx.org/content/m11608/latest/

The superposed positions, expressed relative to the center of mass and in
the orientation of the reference, are the displacement vectors that
fluctuation statistics are accumulated from. A convenience function for
computing the RMSD of two sets of atoms is also provided.
*/
package fit
