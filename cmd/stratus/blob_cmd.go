// File: cmd/stratus/blob_cmd.go
package main

import (
	"fmt"
	"io"
	"os"

	"stratus/internal/flags"
	"stratus/internal/service"

	"github.com/spf13/cobra"
)

type blobFlags struct {
	provider    string
	bucket      string
	cursor      string
	all         bool
	match       string
	byteRange   string
	file        string
	contentType string
	force       bool
}

func newBlobCmd() *cobra.Command {
	cmdFlags := blobFlags{}

	blobCmd := &cobra.Command{
		Use:     "blob",
		Aliases: []string{"blobs"},
		Short:   "Manage blobs inside a bucket",
		Long: `The blob command lists, reads, writes, copies, and deletes objects in a bucket.
Every subcommand needs the --provider and --bucket flags.`,
	}
	blobCmd.PersistentFlags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	blobCmd.PersistentFlags().StringVarP(&cmdFlags.bucket, flags.Bucket, flags.BucketShort, "", "The bucket holding the blobs (required)")
	_ = blobCmd.MarkPersistentFlagRequired(flags.Provider)
	_ = blobCmd.MarkPersistentFlagRequired(flags.Bucket)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List blobs in a bucket",
		Long: `Lists one page of blobs. Pass the printed cursor back with --cursor to fetch the next page,
or use --all to walk every page. --match filters keys with a glob such as 'logs/**/*.gz'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageFor(cmd)
			if err != nil {
				return err
			}
			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}

			page, err := svc.ListBlobs(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, service.BlobQuery{
				Cursor: cmdFlags.cursor,
				All:    cmdFlags.all,
				Match:  cmdFlags.match,
			})
			if err != nil {
				return fmt.Errorf("error listing blobs in '%s' on %s: %w", cmdFlags.bucket, cmdFlags.provider, err)
			}

			if len(page.Blobs) == 0 && page.Next == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No blobs found.")
				return nil
			}
			rendered, err := f.FormatBlobList(page.Blobs, page.Next)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	listCmd.Flags().StringVar(&cmdFlags.cursor, flags.Cursor, "", "Resume listing from a cursor printed by a previous page")
	listCmd.Flags().BoolVar(&cmdFlags.all, flags.All, false, "List every page")
	listCmd.Flags().StringVarP(&cmdFlags.match, flags.Match, flags.MatchShort, "", "Only show keys matching this glob")
	listCmd.MarkFlagsMutuallyExclusive(flags.Cursor, flags.All)

	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Download a blob",
		Long: `Reads a blob and writes its content to stdout, or to the path given with --file.
Use --range (e.g. bytes=0-99) to read part of it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageFor(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			_, content, err := svc.GetBlob(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, key, cmdFlags.byteRange)
			if err != nil {
				return fmt.Errorf("error reading blob '%s' from '%s' on %s: %w", key, cmdFlags.bucket, cmdFlags.provider, err)
			}

			if cmdFlags.file == "" || cmdFlags.file == "-" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(cmdFlags.file, content, 0644); err != nil {
				return fmt.Errorf("error writing %s: %w", cmdFlags.file, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(content), cmdFlags.file)
			return nil
		},
	}
	getCmd.Flags().StringVarP(&cmdFlags.byteRange, flags.Range, flags.RangeShort, "", "Byte range to read, e.g. bytes=0-99 or bytes=100-")
	getCmd.Flags().StringVarP(&cmdFlags.file, flags.File, flags.FileShort, "", "Write the content to this file instead of stdout")

	describeCmd := &cobra.Command{
		Use:   "describe [key]",
		Short: "Show a blob's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageFor(cmd)
			if err != nil {
				return err
			}
			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			blob, err := svc.DescribeBlob(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, key)
			if err != nil {
				return fmt.Errorf("error describing blob '%s' in '%s' on %s: %w", key, cmdFlags.bucket, cmdFlags.provider, err)
			}

			rendered, err := f.FormatBlobDetails(blob)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	putCmd := &cobra.Command{
		Use:   "put [key]",
		Short: "Upload a blob",
		Long:  `Writes a blob, replacing any existing content. Reads from the file given with --file, or from stdin when it is omitted or '-'.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageFor(cmd)
			if err != nil {
				return err
			}

			content, err := readInput(cmdFlags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			key := args[0]
			blob, err := svc.WriteBlob(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, key, content)
			if err != nil {
				return fmt.Errorf("error writing blob '%s' to '%s' on %s: %w", key, cmdFlags.bucket, cmdFlags.provider, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Blob '%s' written to '%s' on provider %s (%d bytes).\n", blob.Key, blob.Bucket, cmdFlags.provider, len(content))
			return nil
		},
	}
	putCmd.Flags().StringVarP(&cmdFlags.file, flags.File, flags.FileShort, "", "Read the content from this file instead of stdin")

	copyCmd := &cobra.Command{
		Use:   "copy [key] [destination-bucket/destination-key]",
		Short: "Copy a blob within a provider",
		Long: `Copies a blob to another location on the same provider. The destination is written as
'bucket/key'. Use --content-type to set a new content type on the copy.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageFor(cmd)
			if err != nil {
				return err
			}

			key, destination := args[0], args[1]
			copied, err := svc.CopyBlob(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, key, destination, cmdFlags.contentType)
			if err != nil {
				return fmt.Errorf("error copying blob '%s' from '%s' on %s: %w", key, cmdFlags.bucket, cmdFlags.provider, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Blob '%s/%s' copied to '%s/%s'.\n", cmdFlags.bucket, key, copied.Bucket, copied.Key)
			return nil
		},
	}
	copyCmd.Flags().StringVar(&cmdFlags.contentType, flags.ContentType, "", "Content type to set on the copy")

	deleteCmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a blob",
		Long:  `Deletes a blob. You will be asked to type the key to confirm unless --force is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.storage()
			if err != nil {
				return err
			}

			key := args[0]
			if !cmdFlags.force {
				confirmed, err := app.Prompter.Confirm(
					fmt.Sprintf("This will permanently delete '%s' from bucket '%s' on %s.", key, cmdFlags.bucket, cmdFlags.provider),
					key,
				)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}
			}

			if _, err := svc.DeleteBlob(cmd.Context(), cmdFlags.bucket, cmdFlags.provider, key); err != nil {
				return fmt.Errorf("error deleting blob '%s' from '%s' on %s: %w", key, cmdFlags.bucket, cmdFlags.provider, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Blob '%s' deleted from '%s' on provider %s.\n", key, cmdFlags.bucket, cmdFlags.provider)
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Delete without asking for confirmation")

	blobCmd.AddCommand(listCmd, getCmd, describeCmd, putCmd, copyCmd, deleteCmd)
	return blobCmd
}

func storageFor(cmd *cobra.Command) (*service.StorageService, error) {
	app, err := appFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	return app.storage()
}

// readInput returns the content of path, or of stdin when path is empty or "-"
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return content, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return content, nil
}
