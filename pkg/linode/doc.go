// Package linode provides a lazily-materialized resource model for the
// Linode API v4.
//
// # Overview
//
// Every resource type (Instance, Volume, Domain, ...) is described by a
// Schema: a table of Property descriptors saying which attributes exist,
// which are mutable, filterable or volatile, and which are relationships or
// derived collections. A generic Resource uses that table to decode JSON,
// serialize edits and build filters, and typed wrappers such as *Instance
// add accessors on top.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/linode-client/pkg/linode"
//	  "github.com/fivetwenty-io/linode-client/pkg/lnclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := lnclient.New(ctx, &linode.Config{Token: "..."})
//	  if err != nil { log.Fatal(err) }
//
//	  inst, err := cli.Instances().Ref(123) // no request yet
//	  if err != nil { log.Fatal(err) }
//
//	  label, err := inst.Label(ctx) // one GET /linode/instances/123
//	  _ = label
//	}
//
// # Lazy resources
//
// A Resource obtained with Ref (or as a relationship of another resource)
// holds only its identity. The first read of any other attribute fetches it
// once. Set records a pending edit; Save sends only pending edits, or the
// full mutable set with force. Invalidate drops the read cache but keeps
// pending edits, so a later Save still submits them. Volatile attributes
// such as status are refetched once older than the refresh threshold.
//
// # Filters
//
// Filters are immutable values built from schema fields and serialized into
// the X-Filter header:
//
//	f := linode.InstanceSchema.Field("label").Eq("web").
//	  And(linode.InstanceSchema.Field("group").Ne("test"))
//	f, err := f.OrderBy("label", true)
//
// ParseFilter compiles the same from text such as
// `label == "web" && group != "test"`.
//
// # Pagination
//
// List returns a PaginatedList. Page 1 is fetched immediately; other pages
// are fetched the first time an index on them is read, and never again.
// Negative indices count from the end. If a later page reports different
// totals than page 1 the list fails with a *StaleListError and must be
// listed again.
//
//	list, err := cli.Instances().List(ctx, nil, f)
//	last, err := list.At(ctx, -1)
//	some, err := list.Slice(ctx, 10, 20)
//
// # Errors
//
// Four kinds are distinguishable: *APIError (error statuses after retries),
// *UnexpectedResponseError (a successful response violating the resource
// contract), *UsageError (caller mistakes) and *StaleListError. Helpers such
// as IsNotFound, IsUsageError and IsStale branch on them.
package linode
