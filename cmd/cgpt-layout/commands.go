package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/osbuild/cgpt-layout/internal/disk"
	"github.com/osbuild/cgpt-layout/internal/gpt"
)

func newWriteGPTCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "write_gpt <image_type> <config_file> <disk_image>",
		Short: "Write the partition table of an image type to a disk image or device",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0], args[1])
			if err != nil {
				return err
			}
			layout, err := table.ComputeLayout(table.Geometry())
			if err != nil {
				return err
			}
			w, err := opts.writer()
			if err != nil {
				return err
			}
			return w.WriteGPT(layout, args[2])
		},
	}
}

func newWriteMbrCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "write_mbr <image_type> <config_file> <disk_image> <mbr_boot_code>",
		Short: "Install boot code into the protective MBR and point it at the EFI partition",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0], args[1])
			if err != nil {
				return err
			}
			w, err := opts.writer()
			if err != nil {
				return err
			}
			return w.WriteMbrBoot(table, args[2], args[3])
		},
	}
}

func newReadBlockSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readblocksize <config_file>",
		Short: "Print the partition table block size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := disk.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.BlockSize())
			return nil
		},
	}
}

func newReadFSBlockSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readfsblocksize <config_file>",
		Short: "Print the filesystem block size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := disk.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.FilesystemBlockSize())
			return nil
		},
	}
}

// parseNum parses a partition number argument. Anything that is not a
// number cannot name a partition.
func parseNum(imageType, arg string) (int, error) {
	num, err := strconv.Atoi(arg)
	if err != nil {
		return 0, &disk.Error{
			Kind:   disk.PartitionNotFound,
			Reason: fmt.Sprintf("invalid partition number %q", arg),
			Layout: imageType,
		}
	}
	return num, nil
}

// newNumQueryCmd returns a command that prints a property of the partition
// with the given number.
func newNumQueryCmd(opts *options, use, short string, query func(*disk.Table, int) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <image_type> <config_file> <partition_num>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0], args[1])
			if err != nil {
				return err
			}
			num, err := parseNum(args[0], args[2])
			if err != nil {
				return err
			}
			value, err := query(table, num)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

// newLabelQueryCmd returns a command that prints a property of the
// partition with the given label.
func newLabelQueryCmd(opts *options, use, short string, query func(*disk.Table, string) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <image_type> <config_file> <label>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0], args[1])
			if err != nil {
				return err
			}
			value, err := query(table, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newReadPartSizeCmd(opts *options) *cobra.Command {
	return newNumQueryCmd(opts, "readpartsize", "Print the size of a partition in bytes",
		func(t *disk.Table, num int) (interface{}, error) { return t.Size(num) })
}

func newReadFSSizeCmd(opts *options) *cobra.Command {
	return newNumQueryCmd(opts, "readfssize", "Print the filesystem size of a partition in bytes",
		func(t *disk.Table, num int) (interface{}, error) { return t.FilesystemSize(num) })
}

func newReadLabelCmd(opts *options) *cobra.Command {
	return newNumQueryCmd(opts, "readlabel", "Print the label of a partition",
		func(t *disk.Table, num int) (interface{}, error) { return t.Label(num) })
}

func newReadNumCmd(opts *options) *cobra.Command {
	return newLabelQueryCmd(opts, "readnum", "Print the number of a partition",
		func(t *disk.Table, label string) (interface{}, error) { return t.Num(label) })
}

func newReadUUIDCmd(opts *options) *cobra.Command {
	return newLabelQueryCmd(opts, "readuuid", "Print the unique GUID of a partition",
		func(t *disk.Table, label string) (interface{}, error) { return t.UUID(label) })
}

func newDebugCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "debug <image_type> <config_file>",
		Short: "Print a human readable summary of a layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0], args[1])
			if err != nil {
				return err
			}
			return table.WriteDebug(cmd.OutOrStdout())
		},
	}
}

func newParseOnlyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parseonly <image_type> <config_file>",
		Short: "Validate a layout without printing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.loadTable(args[0], args[1])
			return err
		},
	}
}

func newShowCmd() *cobra.Command {
	var blockSize uint64

	cmd := &cobra.Command{
		Use:   "show <disk_image>",
		Short: "Print the GPT of a disk image or device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := gpt.Read(args[0], blockSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%10s %10s  %-36s %-10s %s\n", "start", "size", "label", "type", "guid")
			for _, e := range entries {
				fmt.Fprintf(out, "%10d %10d  %-36s %-10s %s\n", e.Start, e.End-e.Start+1, e.Label, e.Type, e.GUID)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&blockSize, "block-size", 512, "logical block size of the disk")
	return cmd
}

func newDumpConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dumpconfig",
		Short: "Print the effective tool configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return DumpConfig(opts.config, cmd.OutOrStdout())
		},
	}
}
