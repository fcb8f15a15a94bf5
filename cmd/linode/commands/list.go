package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// listFlags are shared by every list command.
type listFlags struct {
	filter   string
	pageSize int
	orderBy  string
	desc     bool
	limit    int
	index    int
	slice    string
}

func addListFlags(cmd *cobra.Command, flags *listFlags) {
	cmd.Flags().StringVarP(&flags.filter, "filter", "f", "", `filter expression, e.g. 'label contains "web" && vcpus > 2'`)
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "results per page (25-500, default from config or API)")
	cmd.Flags().StringVar(&flags.orderBy, "order-by", "", "attribute to sort by")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of results")
	cmd.Flags().IntVar(&flags.index, "index", 0, "show only the element at this index (negative counts from the end)")
	cmd.Flags().StringVar(&flags.slice, "slice", "", "show elements START:STOP (either bound may be omitted or negative)")
}

// buildFilter compiles the filter expression and applies the modifiers.
func (f *listFlags) buildFilter(schema *linode.Schema) (*linode.Filter, error) {
	var (
		filter *linode.Filter
		err    error
	)

	if strings.TrimSpace(f.filter) != "" {
		filter, err = linode.ParseFilter(schema, f.filter)
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
	}

	if f.orderBy != "" {
		if filter == nil {
			filter, err = schema.OrderBy(f.orderBy, f.desc)
		} else {
			filter, err = filter.OrderBy(f.orderBy, f.desc)
		}

		if err != nil {
			return nil, err
		}
	}

	if f.limit > 0 {
		if filter == nil {
			filter, err = linode.Limit(f.limit)
		} else {
			filter, err = filter.Limit(f.limit)
		}

		if err != nil {
			return nil, err
		}
	}

	return filter, nil
}

func (f *listFlags) listOptions() *linode.ListOptions {
	pageSize := f.pageSize
	if pageSize == 0 {
		pageSize = viper.GetInt(configKeyPageSize)
	}

	if pageSize == 0 {
		return nil
	}

	return &linode.ListOptions{PageSize: pageSize}
}

// parseSlice parses "START:STOP". A missing START means 0 and a missing
// STOP means the end of the list.
func parseSlice(text string) (int, int, error) {
	startText, stopText, found := strings.Cut(text, ":")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", constants.ErrInvalidSliceSyntax, text)
	}

	start, stop := 0, linode.End

	if startText = strings.TrimSpace(startText); startText != "" {
		n, err := strconv.Atoi(startText)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", constants.ErrInvalidSliceSyntax, text)
		}

		start = n
	}

	if stopText = strings.TrimSpace(stopText); stopText != "" {
		n, err := strconv.Atoi(stopText)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", constants.ErrInvalidSliceSyntax, text)
		}

		stop = n
	}

	return start, stop, nil
}

// runList lists a collection and renders the selected elements. Only the
// pages needed for --index or --slice are fetched.
func runList[T resourceView](cmd *cobra.Command, resources *linode.ResourceClient[T], flags *listFlags, columns []string) error {
	filter, err := flags.buildFilter(resources.Schema())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var filters []*linode.Filter
	if filter != nil {
		filters = append(filters, filter)
	}

	list, err := resources.List(ctx, flags.listOptions(), filters...)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", resources.Schema().Name, err)
	}

	var items []T

	switch {
	case cmd.Flags().Changed("index"):
		item, err := list.At(ctx, flags.index)
		if err != nil {
			return err
		}

		items = []T{item}
	case flags.slice != "":
		start, stop, err := parseSlice(flags.slice)
		if err != nil {
			return err
		}

		items, err = list.Slice(ctx, start, stop)
		if err != nil {
			return err
		}
	default:
		items, err = list.All(ctx)
		if err != nil {
			return err
		}
	}

	return outputResources(cmd, items, columns)
}

// newListCommand builds a list command for one collection. resources picks
// the collection client once the API client exists.
func newListCommand[T resourceView](use, short string, requireAuth bool, columns []string,
	resources func(cli *linode.Client, args []string) *linode.ResourceClient[T], args cobra.PositionalArgs,
) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, requireAuth)
			if err != nil {
				return err
			}

			cmd.SetContext(ctx)

			return runList(cmd, resources(cli, args), flags, columns)
		},
	}

	addListFlags(cmd, flags)

	return cmd
}

// newGetCommand builds a get command that loads one resource by id.
func newGetCommand[T resourceView](use, short string, requireAuth bool,
	resources func(cli *linode.Client, args []string) *linode.ResourceClient[T], args cobra.PositionalArgs,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, requireAuth)
			if err != nil {
				return err
			}

			item, err := resources(cli, args).Get(ctx, parseID(args[len(args)-1]))
			if err != nil {
				return err
			}

			return outputResource(cmd, item)
		},
	}
}

// newDeleteCommand builds a delete command for one resource by id.
func newDeleteCommand[T resourceView](use, short string,
	resources func(cli *linode.Client, args []string) *linode.ResourceClient[T], args cobra.PositionalArgs,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, err := createClient(cmd, true)
			if err != nil {
				return err
			}

			item, err := resources(cli, args).Ref(parseID(args[len(args)-1]))
			if err != nil {
				return err
			}

			err = item.Delete(ctx)
			if err != nil {
				return err
			}

			return outputMessage(cmd, "Deleted", item)
		},
	}
}
