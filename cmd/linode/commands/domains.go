package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// NewDomainsCommand creates the domains command group
func NewDomainsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "domains",
		Aliases: []string{"domain"},
		Short:   "Manage DNS domains",
		Long:    "List, inspect, and delete DNS domains and their records",
	}

	domains := func(cli *linode.Client, _ []string) *linode.ResourceClient[*linode.Domain] {
		return cli.Domains()
	}

	cmd.AddCommand(newListCommand("list", "List domains", true,
		[]string{"id", "domain", "type", "status", "soa_email"}, domains, cobra.NoArgs))
	cmd.AddCommand(newGetCommand("get DOMAIN_ID", "Get domain details", true, domains, cobra.ExactArgs(1)))
	cmd.AddCommand(newDeleteCommand("delete DOMAIN_ID", "Delete a domain", domains, cobra.ExactArgs(1)))
	cmd.AddCommand(newDomainRecordsCommand())

	return cmd
}

func newDomainRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record"},
		Short:   "Manage domain records",
	}

	records := func(cli *linode.Client, args []string) *linode.ResourceClient[*linode.DomainRecord] {
		return cli.DomainRecords(parseID(args[0]))
	}

	cmd.AddCommand(newListCommand("list DOMAIN_ID", "List the records of a domain", true,
		[]string{"id", "type", "name", "target", "ttl_sec"}, records, cobra.ExactArgs(1)))
	cmd.AddCommand(newGetCommand("get DOMAIN_ID RECORD_ID", "Get record details", true,
		records, cobra.ExactArgs(2))) //nolint:mnd
	cmd.AddCommand(newDeleteCommand("delete DOMAIN_ID RECORD_ID", "Delete a record",
		records, cobra.ExactArgs(2))) //nolint:mnd
	cmd.AddCommand(newDomainRecordsCreateCommand())

	return cmd
}

func newDomainRecordsCreateCommand() *cobra.Command {
	var (
		recordType string
		name       string
		target     string
		ttl        int
	)

	cmd := &cobra.Command{
		Use:   "create DOMAIN_ID",
		Short: "Create a domain record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			body := map[string]interface{}{
				"type":   recordType,
				"target": target,
			}

			if name != "" {
				body["name"] = name
			}

			if ttl > 0 {
				body["ttl_sec"] = ttl
			}

			record, err := cli.DomainRecords(parseID(args[0])).Create(ctx, body)
			if err != nil {
				return fmt.Errorf("failed to create record: %w", err)
			}

			return outputResource(cmd, record)
		},
	}

	cmd.Flags().StringVar(&recordType, "type", "", "record type (A, AAAA, CNAME, MX, TXT, ...)")
	cmd.Flags().StringVar(&name, "name", "", "record name")
	cmd.Flags().StringVar(&target, "target", "", "record target")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "time to live in seconds")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
