// File: cmd/stratus/bucket_cmd.go
package main

import (
	"fmt"
	"strings"

	"stratus/internal/flags"
	"stratus/internal/provider/factory"
	"stratus/internal/provider/registry"
	"stratus/pkg/formatter"

	"github.com/spf13/cobra"
)

type bucketFlags struct {
	providersList []string
	provider      string
	location      string
	force         bool
}

func newBucketCmd() *cobra.Command {
	cmdFlags := bucketFlags{}

	bucketCmd := &cobra.Command{
		Use:     "bucket",
		Aliases: []string{"buckets"},
		Short:   "Manage storage buckets",
		Long:    `The bucket command allows you to list, describe, create, and delete buckets on configured storage providers.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List storage buckets",
		Long: `Lists all storage buckets. If no flags are provided, it queries all configured providers.
Use the --providers flag to specify which providers to query (e.g., --providers gcp,aws).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.storage()
			if err != nil {
				return err
			}
			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}

			providersToQuery, err := resolveProvidersForList(cmdFlags.providersList, app.ProviderFactory)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			allBuckets, listErr := svc.ListAllBuckets(cmd.Context(), providersToQuery)

			// Buckets from providers that answered are shown even when others failed
			if len(allBuckets) > 0 {
				rows := make([]formatter.BucketRow, 0, len(allBuckets))
				for _, b := range allBuckets {
					rows = append(rows, formatter.BucketRow{Provider: b.Provider, Scope: b.Scope, Name: b.Name})
				}
				rendered, err := f.FormatBucketList(rows)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
			} else if listErr == nil {
				if len(providersToQuery) == 0 {
					fmt.Fprintf(out, "No providers configured. Use 'stratus config set'. Supported providers: %s\n", strings.Join(registry.GetSupportedProviders(), ", "))
				} else {
					fmt.Fprintln(out, "No buckets found.")
				}
			}

			if listErr != nil {
				return fmt.Errorf("some providers could not be listed: %w", listErr)
			}
			return nil
		},
	}
	listCmd.Flags().StringSliceVarP(&cmdFlags.providersList, flags.Providers, flags.ProvidersShort, []string{}, "Specify providers to query (comma-separated). Defaults to all configured providers.")

	describeCmd := &cobra.Command{
		Use:   "describe [bucket-name]",
		Short: "Describe a specific storage bucket",
		Long:  `Provides detailed information about a specific storage bucket. You must specify the bucket name and the --provider flag.`,
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
			f, err := formatterFor(cmd)
			if err != nil {
				return err
			}

			bucketName := args[0]
			providerName := cmdFlags.provider

			bucketDetails, err := svc.DescribeBucket(cmd.Context(), bucketName, providerName)
			if err != nil {
				return fmt.Errorf("error describing bucket '%s' on %s: %w", bucketName, providerName, err)
			}

			rendered, err := f.FormatBucketDetails(bucketDetails)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	describeCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = describeCmd.MarkFlagRequired(flags.Provider)

	createCmd := &cobra.Command{
		Use:   "create [bucket-name]",
		Short: "Create a new storage bucket",
		Long: `Creates a new storage bucket on the specified provider. You must specify the bucket name and the --provider flag.
The --location flag selects the region where the provider supports one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.storage()
			if err != nil {
				return err
			}

			bucketName := args[0]
			providerName := cmdFlags.provider
			if err := svc.CreateBucket(cmd.Context(), bucketName, providerName, cmdFlags.location); err != nil {
				return fmt.Errorf("error creating bucket '%s' on %s: %w", bucketName, providerName, err)
			}

			if cmdFlags.location != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' created successfully in %s on provider %s.\n", bucketName, cmdFlags.location, providerName)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' created successfully on provider %s.\n", bucketName, providerName)
			}
			return nil
		},
	}
	createCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider to create the bucket on (required)")
	_ = createCmd.MarkFlagRequired(flags.Provider)
	createCmd.Flags().StringVarP(&cmdFlags.location, flags.Location, flags.LocationShort, "", "The location/region to create the bucket in")

	deleteCmd := &cobra.Command{
		Use:   "delete [bucket-name]",
		Short: "Delete a storage bucket",
		Long: `Deletes a storage bucket on the specified provider. You must specify the bucket name and the --provider flag.
You will be asked to type the bucket name to confirm unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := app.storage()
			if err != nil {
				return err
			}

			bucketName := args[0]
			providerName := cmdFlags.provider

			if !cmdFlags.force {
				confirmed, err := app.Prompter.Confirm(
					fmt.Sprintf("This will permanently delete bucket '%s' on %s.", bucketName, providerName),
					bucketName,
				)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
					return nil
				}
			}

			if err := svc.DeleteBucket(cmd.Context(), bucketName, providerName); err != nil {
				return fmt.Errorf("error deleting bucket '%s' on %s: %w", bucketName, providerName, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' deleted successfully from provider %s.\n", bucketName, providerName)
			return nil
		},
	}
	deleteCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = deleteCmd.MarkFlagRequired(flags.Provider)
	deleteCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Delete without asking for confirmation")

	bucketCmd.AddCommand(listCmd, describeCmd, createCmd, deleteCmd)
	return bucketCmd
}

func resolveProvidersForList(requestedProviders []string, providerFactory *factory.Factory) ([]string, error) {
	if len(requestedProviders) == 0 {
		return providerFactory.GetConfiguredProviders(), nil
	}

	var validatedProviders []string
	var invalidProviders []string
	seen := make(map[string]bool)

	for _, p := range requestedProviders {
		p = strings.ToLower(strings.TrimSpace(p))

		if seen[p] {
			continue
		}
		seen[p] = true

		if registry.IsSupported(p) {
			if providerFactory.IsConfigured(p) {
				validatedProviders = append(validatedProviders, p)
			} else {
				return nil, fmt.Errorf("provider '%s' was requested but is not configured. Use 'stratus config set %s.<key> <value>'", p, p)
			}
		} else {
			invalidProviders = append(invalidProviders, p)
		}
	}

	if len(invalidProviders) > 0 {
		return nil, fmt.Errorf("unsupported providers requested: %v. Supported providers are: %v", invalidProviders, registry.GetSupportedProviders())
	}

	return validatedProviders, nil
}
