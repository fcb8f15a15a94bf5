package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

var instanceColumns = []string{"id", "label", "region", "type", "status"}

// NewInstancesCommand creates the instances command group
func NewInstancesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "linodes", "linode"},
		Short:   "Manage Linode instances",
		Long:    "List, inspect, update, and power-cycle Linode instances",
	}

	instances := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Instance] {
		return cli.Instances()
	}

	cmd.AddCommand(newListCommand("list", "List instances", true, instanceColumns, instances, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get INSTANCE_ID", "Get instance details", true, instances, cobra.ExactArgs(1)))
	cmd.AddCommand(newDeleteCommand("delete INSTANCE_ID", "Delete an instance", instances, cobra.ExactArgs(1)))
	cmd.AddCommand(newInstancesUpdateCommand())
	cmd.AddCommand(newInstancesTagCommand())
	cmd.AddCommand(newInstancePowerCommand("boot", "Boot an instance", (*linode.Instance).Boot))
	cmd.AddCommand(newInstancePowerCommand("reboot", "Reboot an instance", (*linode.Instance).Reboot))
	cmd.AddCommand(newInstancePowerCommand("shutdown", "Shut down an instance", (*linode.Instance).Shutdown))
	cmd.AddCommand(newInstancesIPsCommand())
	cmd.AddCommand(newListCommand("disks INSTANCE_ID", "List the disks of an instance", true,
		[]string{"id", "label", "size", "filesystem", "status"},
		func(cli *linode.Client, args []string) *linode.ResourceClient[*linode.Disk] {
			return cli.Disks(parseID(args[0]))
		}, cobra.ExactArgs(1)))
	cmd.AddCommand(newListCommand("configs INSTANCE_ID", "List the configuration profiles of an instance", true,
		[]string{"id", "label", "kernel"},
		func(cli *linode.Client, args []string) *linode.ResourceClient[*linode.InstanceConfig] {
			return cli.InstanceConfigs(parseID(args[0]))
		}, cobra.ExactArgs(1)))

	return cmd
}

func newInstancesUpdateCommand() *cobra.Command {
	var (
		label string
		group string
		tags  []string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "update INSTANCE_ID",
		Short: "Update an instance",
		Long: `Update the label, group, or tags of an instance. Only changed attributes
are sent unless --force is given, in which case every mutable attribute is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !force && !flags.Changed("label") && !flags.Changed("group") && !flags.Changed("tag") {
				return constants.ErrNothingToUpdate
			}

			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			instance, err := cli.Instances().Ref(parseID(args[0]))
			if err != nil {
				return err
			}

			if flags.Changed("label") {
				if err := instance.SetLabel(label); err != nil {
					return err
				}
			}

			if flags.Changed("group") {
				if err := instance.SetGroup(group); err != nil {
					return err
				}
			}

			if flags.Changed("tag") {
				if err := instance.SetTags(tags); err != nil {
					return err
				}
			}

			err = instance.Save(ctx, force)
			if err != nil {
				return fmt.Errorf("failed to update instance: %w", err)
			}

			return outputResource(cmd, instance)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&group, "group", "", "new display group")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (replaces existing tags; repeat or comma-separate)")
	cmd.Flags().BoolVar(&force, "force", false, "send every mutable attribute")

	return cmd
}

func newInstancesTagCommand() *cobra.Command {
	var (
		tags        []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "tag INSTANCE_ID...",
		Short: "Set tags on several instances",
		Long:  "Replace the tags of every listed instance, saving them concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			resources := make([]*linode.Resource, 0, len(args))

			for _, arg := range args {
				instance, err := cli.Instances().Ref(parseID(arg))
				if err != nil {
					return err
				}

				if err := instance.SetTags(tags); err != nil {
					return err
				}

				resources = append(resources, instance.Resource)
			}

			err = linode.SaveAll(ctx, concurrency, resources...)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tagged %d instances\n", len(resources))

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags to set (repeat or comma-separate)")
	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultConcurrencyLimit, "maximum saves in flight")

	return cmd
}

func newInstancePowerCommand(use, short string, action func(*linode.Instance, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " INSTANCE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			instance, err := cli.Instances().Ref(parseID(args[0]))
			if err != nil {
				return err
			}

			err = action(instance, ctx)
			if err != nil {
				return fmt.Errorf("failed to %s instance: %w", use, err)
			}

			return outputMessage(cmd, "Requested "+use+" of", instance)
		},
	}
}

func newInstancesIPsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ips INSTANCE_ID",
		Short: "Show instance IP addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			instance, err := cli.Instances().Ref(parseID(args[0]))
			if err != nil {
				return err
			}

			ips, err := instance.IPs(ctx)
			if err != nil {
				return err
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				return renderJSON(cmd.OutOrStdout(), ips)
			case constants.FormatYAML:
				return renderYAML(cmd.OutOrStdout(), ips)
			}

			var rows [][]string

			for _, group := range []struct {
				scope     string
				addresses []linode.IPAddress
			}{
				{"public", ips.IPv4.Public},
				{"private", ips.IPv4.Private},
				{"shared", ips.IPv4.Shared},
				{"reserved", ips.IPv4.Reserved},
			} {
				for _, address := range group.addresses {
					rows = append(rows, []string{address.Address, "ipv4", group.scope})
				}
			}

			if ips.IPv6.SLAAC != nil {
				rows = append(rows, []string{ips.IPv6.SLAAC.Address, "ipv6", "slaac"})
			}

			if ips.IPv6.LinkLocal != nil {
				rows = append(rows, []string{ips.IPv6.LinkLocal.Address, "ipv6", "link-local"})
			}

			return renderTable(cmd.OutOrStdout(), []string{"Address", "Family", "Scope"}, rows)
		},
	}
}
