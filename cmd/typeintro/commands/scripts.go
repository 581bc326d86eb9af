package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openfroyo/typeintro/pkg/config"
	"github.com/openfroyo/typeintro/pkg/introspection"
	"github.com/openfroyo/typeintro/pkg/transports/ssh"
)

func newScriptsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Manage the schema helper scripts",
	}

	cmd.AddCommand(newScriptsPushCommand())

	return cmd
}

func newScriptsPushCommand() *cobra.Command {
	var (
		verify    bool
		checkType string
	)

	cmd := &cobra.Command{
		Use:   "push <local-dir>",
		Short: "Upload the helper scripts to the SSH host",
		Long: `Upload a local scripts directory to scripts_path on the configured SSH
host, so that schema retrieval works there.

The directory must contain get_type_schema.py. Uploaded files are
verified by SHA256 unless --verify=false.`,
		Example: `  # Push scripts and check that a schema can be retrieved
  typeintro scripts push ./scripts --executor ssh --check std_msgs/msg/String`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			localDir := args[0]
			if _, err := os.Stat(filepath.Join(localDir, introspection.SchemaScriptName)); err != nil {
				return fmt.Errorf("%s does not contain %s: %w", localDir, introspection.SchemaScriptName, err)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Executor.Mode != config.ModeSSH {
				return fmt.Errorf("scripts push requires the ssh executor (got %q)", a.cfg.Executor.Mode)
			}
			if a.cfg.ScriptsPath == "" {
				return fmt.Errorf("scripts_path is required as the upload destination")
			}

			ctx := cmd.Context()
			client, err := a.sshClient()
			if err != nil {
				return err
			}
			if err := client.Connect(ctx); err != nil {
				return err
			}

			result, err := client.UploadDirectory(ctx, localDir, a.cfg.ScriptsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d files (%d bytes) to %s:%s in %s\n",
				result.Files, result.BytesTransferred, a.cfg.Executor.SSH.Host, a.cfg.ScriptsPath, result.Duration)

			if verify {
				if err := verifyDirectory(cmd, client, localDir, a.cfg.ScriptsPath); err != nil {
					return err
				}
			}

			if checkType != "" {
				intro, err := a.introspector(ctx)
				if err != nil {
					return err
				}
				if _, err := intro.GetTypeSchema(ctx, checkType); err != nil {
					return fmt.Errorf("schema check failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema of %s retrieved\n", checkType)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", true, "verify uploaded files by checksum")
	cmd.Flags().StringVar(&checkType, "check", "", "retrieve this type's schema after uploading")

	return cmd
}

// verifyDirectory compares the checksum of every regular file under
// localDir with its uploaded copy under remoteDir.
func verifyDirectory(cmd *cobra.Command, t ssh.Transport, localDir, remoteDir string) error {
	verified := 0
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		if err := ssh.VerifyUpload(cmd.Context(), t, p, path.Join(remoteDir, filepath.ToSlash(rel))); err != nil {
			return err
		}
		verified++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Verified %d files\n", verified)
	return nil
}
