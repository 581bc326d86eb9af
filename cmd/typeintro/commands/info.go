package commands

import (
	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <type>...",
		Short: "Show schema and default template of types",
		Long: `Retrieve the full descriptor of one or more types.

Each descriptor holds the type's category, its field schema and its
default-value template. A part that cannot be retrieved is printed as an
empty object; the failure is logged and journaled instead of failing the
command.`,
		Example: `  # Describe a message type
  typeintro info std_msgs/msg/String

  # Describe several types on a robot
  typeintro info --executor ssh geometry_msgs/msg/Twist std_srvs/srv/Trigger

  # Print YAML
  typeintro info --format yaml sensor_msgs/msg/Temperature`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			intro, err := a.introspector(ctx)
			if err != nil {
				return err
			}

			descs, err := intro.GetTypeInfos(ctx, args)
			if err != nil {
				return err
			}

			a.logger.WithField("types", len(descs)).Debug("retrieved type descriptors")
			return writeFormatted(cmd.OutOrStdout(), format, descs)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatJSON, "output format (json, yaml)")

	return cmd
}
