package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	searchflip "github.com/olleolleolle/search-flip"
)

// maxLine bounds one NDJSON document.
const maxLine = 16 << 20

type bulkFlags struct {
	idField   string
	action    string
	batchSize int
}

func newBulkCmd(a *app) *cobra.Command {
	var f bulkFlags

	cmd := &cobra.Command{
		Use:   "bulk <index> <file>",
		Short: "Load NDJSON documents from a file (- for stdin) in batches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			defer closeIn()

			ops, err := f.operations(in)
			if err != nil {
				return err
			}

			report, err := searchflip.NewIndex[map[string]any](a.client, args[0]).
				Load(cmd.Context(), ops, a.bulkOptions(f)...)
			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("%d of %d bulk items failed", len(report.Failures), len(report.Results))
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.idField, "id-field", "", "document field holding the id")
	fl.StringVar(&f.action, "action", string(searchflip.BulkIndex), "index, create, update or delete")
	fl.IntVar(&f.batchSize, "batch-size", 0, "operations per request (overrides bulk.batch_size)")
	return cmd
}

func (a *app) bulkOptions(f bulkFlags) []searchflip.BulkOption {
	bc := a.cfg.Bulk
	size := bc.BatchSize
	if f.batchSize > 0 {
		size = f.batchSize
	}
	opts := []searchflip.BulkOption{searchflip.BulkBatchSize(size)}
	if len(bc.IgnoreStatus) > 0 {
		opts = append(opts, searchflip.BulkIgnoreStatus(bc.IgnoreStatus...))
	}
	if bc.Refresh != "" {
		opts = append(opts, searchflip.BulkRefresh(bc.Refresh))
	}
	if bc.Gzip {
		opts = append(opts, searchflip.BulkGzip())
	}
	if bc.RatePerSec > 0 {
		opts = append(opts, searchflip.BulkRateLimit(bc.RatePerSec, 1))
	}
	a.logger.Debug("bulk options",
		zap.Int("batch_size", size),
		zap.Ints("ignore_status", bc.IgnoreStatus),
		zap.Bool("gzip", bc.Gzip),
	)
	return opts
}

func openInput(stdin io.Reader, path string) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	fh, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return fh, func() { _ = fh.Close() }, nil
}

func (f bulkFlags) operations(r io.Reader) ([]searchflip.BulkOperation, error) {
	action := searchflip.BulkAction(f.action)
	if !action.Valid() {
		return nil, fmt.Errorf("--action must be index, create, update or delete, got %q", f.action)
	}
	if f.idField == "" && (action == searchflip.BulkUpdate || action == searchflip.BulkDelete) {
		return nil, fmt.Errorf("--action %s requires --id-field", action)
	}

	dec := searchflip.JSONCodec{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	var ops []searchflip.BulkOperation
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc map[string]any
		if err := dec.Decode(line, &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op := searchflip.BulkOperation{Action: action}
		if f.idField != "" {
			id, ok := doc[f.idField]
			if !ok || id == nil {
				return nil, fmt.Errorf("line %d: missing id field %q", lineNo, f.idField)
			}
			op.ID = fmt.Sprint(id)
		}
		switch action {
		case searchflip.BulkUpdate:
			op.Document = map[string]any{"doc": doc}
		case searchflip.BulkDelete:
		default:
			op.Document = doc
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("document exceeds %d bytes: %w", maxLine, err)
		}
		return nil, fmt.Errorf("read input: %w", err)
	}
	return ops, nil
}

func printReport(w io.Writer, r searchflip.BulkReport) {
	fmt.Fprintf(w, "batches: %d succeeded: %d failed: %d\n", r.Batches, r.Succeeded, len(r.Failures))
	for _, res := range r.Failures {
		fmt.Fprintf(w, "  #%d %s %s: %v\n", res.Position(), res.Action(), res.ID(), res.Err())
	}
}
