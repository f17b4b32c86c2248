/*
Package nma builds the mass weighted Hessian of an elastic network of
residues, optionally reduces it onto a subset of residues with a Schur
complement, and decomposes it into normal modes and mean square
fluctuations.

Residue indices are 1-based in every exported API.
*/
package nma
