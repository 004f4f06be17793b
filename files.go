package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/gdrive-go/internal/auth"
	"github.com/tonimelisma/gdrive-go/internal/cache"
	"github.com/tonimelisma/gdrive-go/internal/driver"
	"github.com/tonimelisma/gdrive-go/internal/remote"
)

// maxConcurrentDownloads bounds the parallel get workers. Each download
// is its own driver call; within one call everything stays sequential.
const maxConcurrentDownloads = 4

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List files in the configured container",
		Args:  cobra.NoArgs,
		RunE:  runLs,
	}

	cmd.Flags().Bool("all", true, "follow pagination to the end (--all=false fetches one page)")
	cmd.Flags().String("query", "", "provider query expression (e.g. \"name contains 'report'\")")
	cmd.Flags().String("order-by", "", "sort order requested from the remote (default: modifiedTime desc)")
	cmd.Flags().Bool("cached", false, "show the last cached listing without a network call")

	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <file-id>...",
		Short: "Download files by id",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGet,
	}

	cmd.Flags().StringP("output-dir", "o", ".", "directory to write downloaded files into")

	return cmd
}

func runLs(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	cached, _ := cmd.Flags().GetBool("cached")

	store, err := cache.Open(cmd.Context(), resolvedCfg.CachePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	d := driver.New(resolvedCfg, driver.Options{
		HTTPClient: defaultHTTPClient(),
		Cache:      store,
	}, logger)

	if cached {
		resources, storedAt, snapErr := d.CachedListing(cmd.Context())
		if snapErr != nil {
			return snapErr
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Cached listing from %s\n", storedAt.Format(time.RFC3339))

		return printListing(cmd.OutOrStdout(), resources)
	}

	if err := requireLogin(d); err != nil {
		return err
	}

	fetchAll, _ := cmd.Flags().GetBool("all")
	query, _ := cmd.Flags().GetString("query")
	orderBy, _ := cmd.Flags().GetString("order-by")

	resources, err := d.List(cmd.Context(), remote.ListQuery{
		Query:    query,
		OrderBy:  orderBy,
		FetchAll: fetchAll,
	})
	if err != nil {
		return err
	}

	return printListing(cmd.OutOrStdout(), resources)
}

func runGet(cmd *cobra.Command, args []string) error {
	logger := buildLogger()

	d := driver.New(resolvedCfg, driver.Options{HTTPClient: defaultHTTPClient()}, logger)
	if err := requireLogin(d); err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// Concurrency across driver calls is fine — each call runs its own
	// sequential retry loop.
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxConcurrentDownloads)

	for _, id := range args {
		g.Go(func() error {
			data, err := d.Fetch(ctx, id)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", id, err)
			}

			target := filepath.Join(outDir, id)
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", target, len(data))

			return nil
		})
	}

	return g.Wait()
}

// requireLogin binds the saved token, translating the not-logged-in case
// into an actionable message.
func requireLogin(d *driver.Driver) error {
	err := d.LoadToken()
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return fmt.Errorf("not logged in — run 'gdrive-go login' first")
	}

	return err
}

// printListing renders resources as a table, or as JSON with --json.
func printListing(w io.Writer, resources []remote.Resource) error {
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(resources)
	}

	for _, r := range resources {
		fmt.Fprintf(w, "%-44s %12d  %s  %s\n",
			r.ID, r.Size, r.ModifiedAt.Format("2006-01-02 15:04"), r.Name)
	}

	fmt.Fprintf(w, "%d files\n", len(resources))

	return nil
}
