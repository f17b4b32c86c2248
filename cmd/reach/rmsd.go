package main

import (
	"fmt"
	"strconv"

	"github.com/TuftsBCB/io/pdb"
	"github.com/spf13/cobra"
)

func rmsdCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rmsd pdb-file chain-id start end pdb-file chain-id start end",
		Short:   "Print the RMSD between two carbon-alpha residue ranges.",
		Example: "  reach rmsd sample1.pdb A 1 10 sample1.pdb A 10 19",
		Args:    cobra.ExactArgs(8),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry1, chain1, s1, e1, err := rmsdRange(args[0:4])
			if err != nil {
				return err
			}
			entry2, chain2, s2, e2, err := rmsdRange(args[4:8])
			if err != nil {
				return err
			}
			rmsd, err := pdb.RMSD(entry1, chain1, s1, e1, entry2, chain2, s2, e2)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rmsd)
			return nil
		},
	}
}

// rmsdRange reads the PDB entry, chain identifier and inclusive residue
// range given by args.
func rmsdRange(args []string) (*pdb.Entry, byte, int, int, error) {
	if len(args[1]) != 1 {
		return nil, 0, 0, 0, fmt.Errorf("The chain identifier '%s' must be "+
			"a single character.", args[1])
	}
	start, err := parseInt(args[2])
	if err != nil {
		return nil, 0, 0, 0, err
	}
	end, err := parseInt(args[3])
	if err != nil {
		return nil, 0, 0, 0, err
	}
	entry, err := pdb.ReadPDB(args[0])
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("Could not open PDB file '%s': %w",
			args[0], err)
	}
	return entry, args[1][0], start, end, nil
}

func parseInt(numStr string) (int, error) {
	num, err := strconv.ParseInt(numStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("Could not parse '%s' as an integer: %w",
			numStr, err)
	}
	return int(num), nil
}
