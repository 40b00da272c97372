// Command seedtariff converts a tariff workbook into a SQL seed file.
// The workbook may be a local path or an s3://bucket/key location, and the
// generated script may be written locally or uploaded to S3.
// Usage: go run ./cmd/seedtariff -in tariff.xlsx -out db/seeds/tariff.sql
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dutycalc/internal/config"
	"dutycalc/internal/logger"
	"dutycalc/internal/port"
	s3storage "dutycalc/internal/storage/s3"
)

type options struct {
	in  string
	out string
}

// storageFactory builds the object storage client on first use, so local
// runs never need AWS credentials.
type storageFactory func(ctx context.Context) (port.ObjectStorage, error)

func main() {
	_ = godotenv.Load()

	opts := options{}
	flag.StringVar(&opts.in, "in", "tariff.xlsx", "tariff workbook path or s3://bucket/key")
	flag.StringVar(&opts.out, "out", "db/seeds/tariff.sql", "output path or s3://bucket/key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	newStorage := func(ctx context.Context) (port.ObjectStorage, error) {
		return s3storage.NewS3Client(ctx, &cfg.S3)
	}
	if err := run(ctx, opts, newStorage, log); err != nil {
		log.Fatal("seed generation failed", zap.Error(err))
	}
}

func run(ctx context.Context, opts options, newStorage storageFactory, log *zap.Logger) error {
	var store port.ObjectStorage
	getStore := func() (port.ObjectStorage, error) {
		if store != nil {
			return store, nil
		}
		s, err := newStorage(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize object storage: %w", err)
		}
		store = s
		return store, nil
	}

	f, err := openWorkbook(ctx, opts.in, getStore)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data, err := parseWorkbook(f, log)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeSeed(&buf, data, opts.in); err != nil {
		return fmt.Errorf("render seed: %w", err)
	}

	if s3storage.IsURI(opts.out) {
		bucket, key, err := s3storage.ParseURI(opts.out)
		if err != nil {
			return err
		}
		s, err := getStore()
		if err != nil {
			return err
		}
		out, err := s.Upload(ctx, port.UploadInput{
			Bucket:      bucket,
			Key:         key,
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: "application/sql",
		})
		if err != nil {
			return fmt.Errorf("upload seed: %w", err)
		}
		log.Info("seed uploaded", zap.String("location", out.Location), zap.Int("records", data.total()))
		return nil
	}

	if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write seed file: %w", err)
	}
	log.Info("seed written", zap.String("path", opts.out), zap.Int("records", data.total()))
	return nil
}

func openWorkbook(ctx context.Context, location string, getStore func() (port.ObjectStorage, error)) (*excelize.File, error) {
	if !s3storage.IsURI(location) {
		f, err := excelize.OpenFile(location)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		return f, nil
	}

	bucket, key, err := s3storage.ParseURI(location)
	if err != nil {
		return nil, err
	}
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	raw, err := s.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("download workbook: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}
