package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"survey-viewer/internal/filename"
	"survey-viewer/internal/startup"
)

// errDecodeFailed is returned when at least one name did not decode, after
// every result has been printed.
var errDecodeFailed = errors.New("one or more names failed to decode")

type decodeResult struct {
	Name     string             `json:"name"`
	Metadata *filename.Metadata `json:"metadata,omitempty"`
	Error    string             `json:"error,omitempty"`
	Kind     string             `json:"errorKind,omitempty"`
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "surveyname",
		Short:         "Inspect survey image file names",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       startup.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newDecodeCommand())
	return rootCmd
}

func newDecodeCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "decode <name|dir>...",
		Short: "Decode acquisition date, asset, km and line from image names",
		Long: "Decode the metadata encoded in survey image names. Directory arguments " +
			"are expanded to the .tif and .tiff files they contain.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := expandNames(args)
			if err != nil {
				return err
			}

			results := decodeAll(names)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
			}

			for _, r := range results {
				if r.Error != "" {
					return errDecodeFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

// expandNames replaces each directory argument with the image files in it.
// Other arguments are taken as names and need not exist on disk.
func expandNames(args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			names = append(names, filepath.Base(arg))
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && filename.HasImageExtension(e.Name()) {
				found = append(found, e.Name())
			}
		}
		sort.Strings(found)
		names = append(names, found...)
	}
	return names, nil
}

func decodeAll(names []string) []decodeResult {
	results := make([]decodeResult, 0, len(names))
	for _, name := range names {
		r := decodeResult{Name: name}
		md, err := filename.Decode(name)
		if err != nil {
			r.Error = err.Error()
			r.Kind = filename.KindName(err)
		} else {
			r.Metadata = &md
		}
		results = append(results, r)
	}
	return results
}

func renderResults(results []decodeResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Metadata == nil {
			rows = append(rows, []string{r.Name, "", "", "", "", r.Error})
			continue
		}
		md := r.Metadata
		rows = append(rows, []string{
			r.Name,
			md.AssetName,
			md.AcquisitionDate.Format("2006-01-02 15:04"),
			strconv.FormatFloat(md.Km, 'f', 3, 64),
			md.Line,
			"",
		})
	}
	return renderTable(
		[]string{"Name", "Asset", "Acquired", "Km", "Line", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
