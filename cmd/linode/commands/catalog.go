package commands

import (
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// NewRegionsCommand creates the regions command group. Catalog commands
// work without a token.
func NewRegionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "regions",
		Aliases: []string{"region"},
		Short:   "List regions",
		Long:    "List and inspect the regions where resources can be deployed",
	}

	regions := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Region] {
		return cli.Regions()
	}

	cmd.AddCommand(newListCommand("list", "List regions", false,
		[]string{"id", "label", "country", "status"}, regions, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get REGION_ID", "Get region details", false, regions, cobra.ExactArgs(1)))

	return cmd
}

// NewTypesCommand creates the types command group
func NewTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "types",
		Aliases: []string{"type"},
		Short:   "List instance types",
		Long:    "List and inspect the instance plans",
	}

	types := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Type] {
		return cli.Types()
	}

	cmd.AddCommand(newListCommand("list", "List instance types", false,
		[]string{"id", "label", "class", "vcpus", "memory", "disk"}, types, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get TYPE_ID", "Get instance type details", false, types, cobra.ExactArgs(1)))

	return cmd
}

// NewImagesCommand creates the images command group
func NewImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "List images",
		Long:    "List and inspect public and private images",
	}

	images := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Image] {
		return cli.Images()
	}

	cmd.AddCommand(newListCommand("list", "List images", false,
		[]string{"id", "label", "vendor", "size", "is_public"}, images, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get IMAGE_ID", "Get image details", false, images, cobra.ExactArgs(1)))

	return cmd
}
