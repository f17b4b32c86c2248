/*
Package trajectory reads molecular dynamics trajectories as a stream of
frames.

A Source is read like a bufio.Scanner:

	for src.Scan() {
		frame := src.Frame()
		...
	}
	if err := src.Err(); err != nil {
		...
	}

Frames are never modified after they are returned, so a frame may be shared
by several goroutines. Sources are not restartable.

CHARMM/NAMD DCD files and GROMACS TRR and XTC files are supported. GROMACS
coordinates are converted from nanometers to Angstroms.
*/
package trajectory
