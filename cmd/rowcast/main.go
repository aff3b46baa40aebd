package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rowcast/rowcast/pkg/fromparquet"
	"github.com/rowcast/rowcast/pkg/value"
)

func main() {
	var (
		rational  bool
		extended  bool
		compact   bool
		inputPath string
	)

	flag.BoolVar(&rational, "rational", false, "Normalize decimals as exact rationals instead of scaled decimals")
	flag.BoolVar(&extended, "extended-decimal", false, "Emit decimals as a record preserving the exact value as text instead of a single float")
	flag.BoolVar(&compact, "compact", false, "Emit compact JSON instead of indented")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "doc", uuid.New().String())

	inputPath = flag.Arg(0)
	if inputPath == "" {
		inputPath = "-"
	}

	data, err := readInput(inputPath)
	if err != nil {
		level.Error(logger).Log("msg", "failed to read input", "path", inputPath, "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metrics := fromparquet.NewMetrics(reg)
	conv := fromparquet.New(fromparquet.Options{
		Rational:        rational,
		ExtendedDecimal: extended,
	}, metrics, logger)

	doc, err := conv.Document(data, value.Span{Start: 0, End: len(data)})
	if err != nil {
		level.Error(logger).Log("msg", "failed to convert document", "path", inputPath, "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "converted document", "path", inputPath, "rows", len(doc.List), "bytes", len(data))

	var out []byte
	if compact {
		out, err = json.Marshal(doc)
	} else {
		out, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		level.Error(logger).Log("msg", "failed to render output", "err", err)
		os.Exit(1)
	}
	out = append(out, '\n')
	if _, err := os.Stdout.Write(out); err != nil {
		level.Error(logger).Log("msg", "failed to write output", "err", err)
		os.Exit(1)
	}
}

// readInput reads the whole input into memory, decompressing .gz and .zst
// files so the converter always sees a plain parquet buffer.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.HasSuffix(path, ".zst"):
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	return data, nil
}
