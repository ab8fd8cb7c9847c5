// File: cmd/version.go
package cmd

import (
	"github.com/spf13/cobra"

	"filestoprompt/pkg/version"
)

// configureVersion enables the --version flag.
// The root command takes arbitrary paths, so version is a flag rather than a
// subcommand that would shadow a path named "version".
func configureVersion(cmd *cobra.Command) {
	v := version.Get()
	cmd.Version = v.Short()
	cmd.SetVersionTemplate(v.String() + "\n")
}
