// Package cmd implements cooper's command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/cooper/cmd/analyze"
	"github.com/jonesrussell/cooper/cmd/common"
	cmdevents "github.com/jonesrussell/cooper/cmd/events"
	"github.com/jonesrussell/cooper/cmd/locate"
	"github.com/jonesrussell/cooper/cmd/serve"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// NewRootCommand builds the cooper command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cooper",
		Short: "Correlate the emotional tone of short videos with engagement",
		Long: `cooper locates short-form videos for a topic, scrapes their comments and
engagement, classifies the emotions in comments and audio, correlates them
with likes, comments, shares and views, and drafts insights and PR hooks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().String(common.FlagConfig, "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().Bool(common.FlagDebug, false, "enable debug logging")
	root.PersistentFlags().Bool(common.FlagOffline, false, "use canned data instead of external services")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cooper version %s\n", Version)
		},
	})

	root.AddCommand(analyze.Command())
	root.AddCommand(locate.Command())
	root.AddCommand(serve.Command(Version))
	root.AddCommand(cmdevents.Command())

	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
