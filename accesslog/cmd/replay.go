package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/accesslog/datarecording"
	"github.com/sarchlab/accesslog/trace"
	"github.com/spf13/cobra"
)

func newReplayCmd(opts *options) *cobra.Command {
	var (
		seqName string
		dbPath  string
		mirror  bool
	)

	replayCmd := &cobra.Command{
		Use:   "replay <trace-file>",
		Short: "Record every access listed in a trace file.",
		Long: "Each non-empty line of the trace file holds five " +
			"whitespace-separated values: addr tag idx off data. Lines " +
			"starting with # are ignored. The sequence name defaults to the " +
			"base name of the trace file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seq") {
				seqName = opts.cfg.SeqName
				if seqName == "" {
					seqName = filepath.Base(args[0])
				}
			}

			counter := trace.NewCountingTracer()
			tracers := []trace.Tracer{
				trace.NewStoreTracer(opts.store(), seqName),
				counter,
			}

			var recorder datarecording.DataRecorder

			if mirror {
				var err error

				recorder, err = datarecording.New(dbPath)
				if err != nil {
					return err
				}

				dbTracer, err := trace.NewDBTracer(recorder, seqName, nil)
				if err != nil {
					recorder.Close()
					return err
				}

				tracers = append(tracers, dbTracer)
			}

			err := replayFile(args[0], trace.NewMultiTracer(tracers...))

			if recorder != nil {
				// Close is the last flush of the mirror.
				closeErr := recorder.Close()
				if err == nil {
					err = closeErr
				}
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d accesses from %s into %s\n",
				counter.Count(), args[0], opts.storePath)

			return nil
		},
	}

	replayCmd.Flags().StringVar(&seqName, "seq", "", "Name of the access sequence")
	replayCmd.Flags().BoolVar(&mirror, "db", false,
		"Also record the accesses into an SQLite database")
	replayCmd.Flags().StringVar(&dbPath, "db-path", "",
		"Database name without extension (generated when empty)")

	return replayCmd
}

func replayFile(path string, tracer trace.Tracer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 5 {
			return fmt.Errorf("%s:%d: expected 5 fields, got %d",
				path, lineNo, len(fields))
		}

		err = tracer.TraceAccess(trace.Access{
			Address: fields[0],
			Tag:     fields[1],
			Index:   fields[2],
			Offset:  fields[3],
			Data:    fields[4],
		})
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}
