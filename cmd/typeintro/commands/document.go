package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openfroyo/typeintro/pkg/introspection"
)

type documentFunc func(i *introspection.Introspector, ctx context.Context, typeName string) (introspection.Document, error)

func newTemplateCommand() *cobra.Command {
	return newDocumentCommand(
		"template <type>",
		"Print the default-value template of a type",
		`Dump the default-value template of a type through the configured tool.

Unlike info, the result is not cached and any failure fails the command.`,
		`  typeintro template std_msgs/msg/Header
  typeintro template --format yaml geometry_msgs/msg/Pose`,
		(*introspection.Introspector).GetTypeTemplate,
	)
}

func newSchemaCommand() *cobra.Command {
	return newDocumentCommand(
		"schema <type>",
		"Print the field schema of a type",
		`Run the schema helper script for a type and print its schema.

Unlike info, the result is not cached and any failure fails the command.
Requires a scripts path.`,
		`  typeintro schema --scripts-path /opt/typeintro/scripts std_srvs/srv/SetBool`,
		(*introspection.Introspector).GetTypeSchema,
	)
}

func newDocumentCommand(use, short, long, example string, get documentFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Example: example,
		Args:    cobra.ExactArgs(1),
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

			doc, err := get(intro, ctx, args[0])
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), format, doc)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatJSON, "output format (json, yaml)")

	return cmd
}
