package commands

import (
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// NewNodeBalancersCommand creates the nodebalancers command group
func NewNodeBalancersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nodebalancers",
		Aliases: []string{"nodebalancer", "nb"},
		Short:   "Inspect NodeBalancers",
		Long:    "List NodeBalancers with their port configurations and backend nodes",
	}

	nodeBalancers := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.NodeBalancer] {
		return cli.NodeBalancers()
	}

	cmd.AddCommand(newListCommand("list", "List NodeBalancers", true,
		[]string{"id", "label", "region", "hostname", "ipv4"}, nodeBalancers, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get NODEBALANCER_ID", "Get NodeBalancer details", true,
		nodeBalancers, cobra.ExactArgs(1)))
	cmd.AddCommand(newListCommand("configs NODEBALANCER_ID", "List the port configurations of a NodeBalancer", true,
		[]string{"id", "port", "protocol", "algorithm"},
		func(cli *linode.Client, args []string) *linode.ResourceClient[*linode.NodeBalancerConfig] {
			return cli.NodeBalancerConfigs(parseID(args[0]))
		}, cobra.ExactArgs(1)))

	nodes := newListCommand("nodes NODEBALANCER_ID CONFIG_ID", "List the backend nodes of a configuration", true,
		[]string{"id", "label", "address", "weight", "mode", "status"}, nodeBalancerNodes,
		cobra.RangeArgs(1, 2)) //nolint:mnd
	nodes.Long = `List the backend nodes of a configuration. The NodeBalancer and config
ids may also be given as one combined key, e.g. "12/34".`
	cmd.AddCommand(nodes)

	return cmd
}

// nodeBalancerNodes takes two ids or one combined "<nodebalancer>/<config>" key.
func nodeBalancerNodes(cli *linode.Client, args []string) *linode.ResourceClient[*linode.NodeBalancerNode] {
	if len(args) == 1 {
		return cli.NodeBalancerNodes(args[0])
	}

	return cli.NodeBalancerNodes(parseID(args[0]), parseID(args[1]))
}
