package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// NewVolumesCommand creates the volumes command group
func NewVolumesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "volumes",
		Aliases: []string{"volume", "vol"},
		Short:   "Manage block storage volumes",
		Long:    "List, inspect, attach, and detach block storage volumes",
	}

	volumes := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Volume] {
		return cli.Volumes()
	}

	cmd.AddCommand(newListCommand("list", "List volumes", true,
		[]string{"id", "label", "size", "region", "linode_id", "status"}, volumes, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get VOLUME_ID", "Get volume details", true, volumes, cobra.ExactArgs(1)))
	cmd.AddCommand(newDeleteCommand("delete VOLUME_ID", "Delete a volume", volumes, cobra.ExactArgs(1)))
	cmd.AddCommand(newVolumesAttachCommand())
	cmd.AddCommand(newVolumesDetachCommand())

	return cmd
}

func newVolumesAttachCommand() *cobra.Command {
	var linodeID string

	cmd := &cobra.Command{
		Use:   "attach VOLUME_ID",
		Short: "Attach a volume to an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			volume, err := cli.Volumes().Ref(parseID(args[0]))
			if err != nil {
				return err
			}

			err = volume.Attach(ctx, parseID(linodeID))
			if err != nil {
				return fmt.Errorf("failed to attach volume: %w", err)
			}

			return outputMessage(cmd, "Attached", volume)
		},
	}

	cmd.Flags().StringVar(&linodeID, "linode", "", "instance to attach to")
	_ = cmd.MarkFlagRequired("linode")

	return cmd
}

func newVolumesDetachCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detach VOLUME_ID",
		Short: "Detach a volume from its instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			volume, err := cli.Volumes().Ref(parseID(args[0]))
			if err != nil {
				return err
			}

			err = volume.Detach(ctx)
			if err != nil {
				return fmt.Errorf("failed to detach volume: %w", err)
			}

			return outputMessage(cmd, "Detached", volume)
		},
	}
}
