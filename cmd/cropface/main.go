// Command cropface crops the largest face out of image files on disk using the same
// pipeline and detector configuration as the HTTP server.
//
//	cropface -out faces/ -workers 4 photos/*.jpg
//	cropface -stats
//	cropface -purge-cache
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"face_cropper/internal/app/config"
	"face_cropper/internal/app/di"
	facecropadapters "face_cropper/internal/feature/facecrop/adapters"
	"face_cropper/internal/feature/facecrop/domain"
	"face_cropper/internal/feature/facecrop/usecase"
	"face_cropper/internal/platform/cache"
	"face_cropper/internal/platform/db"
	infraredis "face_cropper/internal/platform/redis"
	"face_cropper/internal/platform/requestid"
)

const statsWindow = 24 * time.Hour

func main() {
	outDir := flag.String("out", "faces", "output directory")
	workers := flag.Int("workers", runtime.NumCPU(), "number of files processed concurrently")
	stats := flag.Bool("stats", false, "print crop event counts per outcome for the last 24h and exit")
	purge := flag.Bool("purge-cache", false, "delete cached detections of the configured backend and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	switch {
	case *stats:
		if err := printStats(ctx, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	case *purge:
		if err := purgeCache(ctx, cfg, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("usage: cropface [-out DIR] [-workers N] FILE...")
	}

	rdb := openRedis(ctx)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	detector, closer, err := di.NewFaceDetector(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("failed to create face detector: %v", err)
	}
	defer func() { _ = closer.Close() }()

	var recorder usecase.CropEventRecorder
	if dcfg := db.LoadConfigFromEnv(); dcfg.Enabled() {
		gdb, err := db.OpenDB(dcfg, &facecropadapters.CropEventModel{})
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		recorder = di.NewCropEventRecorder(gdb)
	}

	cropper, err := di.NewFaceCropper(cfg, detector, recorder)
	if err != nil {
		log.Fatalf("invalid pipeline parameters: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	failed, err := run(ctx, cropper, files, *outDir, *workers, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// run crops every file with at most workers pipelines in flight and prints one line per file.
// Per-file pipeline failures are reported and counted; output I/O errors abort the batch.
func run(ctx context.Context, cropper usecase.FaceCropper, files []string, outDir string, workers int, w io.Writer) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var (
		failed atomic.Int64
		out    = newLineWriter(w)
	)
	dsts := outputPaths(files, outDir)
	for i, path := range files {
		g.Go(func() error {
			dst, err := processFile(ctx, cropper, path, dsts[i])
			switch {
			case err == nil:
				out.printf("ok\t%s\t%s\n", path, dst)
				return nil
			case errors.Is(err, errWriteOutput):
				return err
			default:
				failed.Add(1)
				out.printf("%s\t%s\t%v\n", domain.Outcome(err), path, err)
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return int(failed.Load()), err
	}
	return int(failed.Load()), nil
}

var errWriteOutput = errors.New("write output")

// processFile runs the pipeline for one file and writes the crop to dst.
func processFile(ctx context.Context, cropper usecase.FaceCropper, path, dst string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}

	ctx = requestid.WithID(ctx, requestid.New())
	res, err := cropper.CropFace(ctx, data)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(dst, res.JPEG, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", errWriteOutput, err)
	}
	return dst, nil
}

// outputPaths maps each input to <name>_face.jpg in outDir. Inputs sharing a name
// (a/x.jpg, b/x.jpg) get a numeric suffix in argument order: x_face.jpg, x_2_face.jpg.
func outputPaths(files []string, outDir string) []string {
	used := make(map[string]bool, len(files))
	dsts := make([]string, len(files))
	for i, path := range files {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := base + "_face.jpg"
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d_face.jpg", base, n)
		}
		used[name] = true
		dsts[i] = filepath.Join(outDir, name)
	}
	return dsts
}

func openRedis(ctx context.Context) *redisv9.Client {
	rcfg, err := infraredis.LoadConfig()
	if err != nil || !rcfg.Enabled() {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, rcfg)
	if err != nil {
		slog.Warn("Redis unavailable. Running without detection cache.", "error", err)
		return nil
	}
	return rdb
}

func printStats(ctx context.Context, w io.Writer) error {
	dcfg := db.LoadConfigFromEnv()
	if !dcfg.Enabled() {
		return errors.New("no database configured; set DATABASE_URL, DB_HOST or SQLITE_PATH")
	}
	gdb, err := db.OpenDB(dcfg, &facecropadapters.CropEventModel{})
	if err != nil {
		return err
	}

	counts, err := facecropadapters.NewCropEventGorm(gdb).CountByOutcome(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		return fmt.Errorf("count crop events: %w", err)
	}

	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%d\n", o, counts[o])
	}
	return nil
}

func purgeCache(ctx context.Context, cfg config.Config, w io.Writer) error {
	rdb := openRedis(ctx)
	if rdb == nil {
		return errors.New("no Redis configured; set REDIS_URL or REDIS_HOST")
	}
	defer func() { _ = rdb.Close() }()

	n, err := cache.NewCachingFaceDetector(rdb, cfg.Cache.TTL, nil, cfg.Cache.Namespace, cfg.Detector.Backend).Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	fmt.Fprintf(w, "deleted %d cached detections\n", n)
	return nil
}
