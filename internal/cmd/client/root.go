package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the eventfeed client.
// It registers the feed command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "eventfeed",
		Short: "eventfeed client commands",
	}
	root.AddCommand(NewFeedCommand(baseURL))
	return root
}
