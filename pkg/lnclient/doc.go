// Package lnclient provides the primary entry point for constructing a
// Linode API v4 client.
//
// It layers configuration, the retrying HTTP transport and authentication
// on top of the resource model defined in the linode package. Most
// applications should import lnclient to build a client, then use the
// returned *linode.Client to reach resource-specific clients such as
// Instances(), Volumes() or Domains().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/rs/zerolog"
//
//	  "github.com/fivetwenty-io/linode-client/pkg/linode"
//	  "github.com/fivetwenty-io/linode-client/pkg/lnclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // A personal access token against the public API:
//	  cli, err := lnclient.NewWithToken(ctx, "", os.Getenv("LINODE_TOKEN"))
//	  if err != nil { log.Fatal(err) }
//
//	  // Or a full configuration with structured logging:
//	  cli, err = lnclient.New(ctx, &linode.Config{
//	    Token:        os.Getenv("LINODE_TOKEN"),
//	    RetryBackoff: "exponential",
//	    Logger:       lnclient.NewZerologLogger(zerolog.New(os.Stderr)),
//	  })
//
//	  list, err := cli.Instances().List(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = list
//	}
//
// When Config.Logger is nil, New falls back to the zerolog logger attached
// to ctx, if any.
package lnclient
