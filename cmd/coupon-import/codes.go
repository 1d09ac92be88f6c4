package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
)

const (
	minCodeLen = 4
	maxCodeLen = 32
)

type collectStats struct {
	duplicates int
	rejected   int
}

// collectCodes reads every file concurrently and returns the normalized,
// valid codes in first-seen order with duplicates removed.
func collectCodes(ctx context.Context, files []string) ([]string, collectStats, error) {
	perFile := make([][]string, len(files))
	rejected := make([]int, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			codes, bad, err := readCodeFile(gctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			slog.Info("file read",
				slog.String("path", path),
				slog.Int("codes", len(codes)),
				slog.Int("rejected", bad),
			)
			perFile[i], rejected[i] = codes, bad
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, collectStats{}, err
	}

	var (
		stats collectStats
		out   []string
		seen  = make(map[string]struct{})
	)
	for i, codes := range perFile {
		stats.rejected += rejected[i]
		for _, c := range codes {
			if _, ok := seen[c]; ok {
				stats.duplicates++
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, stats, nil
}

// readCodeFile opens path, decompressing it when it ends in .gz.
func readCodeFile(ctx context.Context, path string) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, 0, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return scanCodes(ctx, r)
}

// scanCodes returns the valid codes of r, one per line. Blank lines and
// lines starting with # are skipped; other malformed lines are counted.
func scanCodes(ctx context.Context, r io.Reader) ([]string, int, error) {
	var (
		codes    []string
		rejected int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code := coupon.NormalizeCode(line)
		if !validCode(code) {
			rejected++
			continue
		}
		codes = append(codes, code)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "scan")
	}
	return codes, rejected, nil
}

func validCode(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// dropExisting removes codes already stored so their rule and redemption
// count stay untouched. Expired or used-up codes count as stored; pass a
// coupon.Prefilter that never reloads as repo to skip lookups for codes it
// has never seen.
func dropExisting(ctx context.Context, repo coupon.Repository, codes []string) ([]string, int, error) {
	kept := codes[:0:0]
	skipped := 0
	for _, c := range codes {
		_, err := repo.FindByCode(ctx, c)
		switch {
		case err == nil:
			skipped++
		case errors.Is(err, coupon.ErrInvalidCoupon):
			kept = append(kept, c)
		default:
			return nil, 0, errors.Wrapf(err, "check %s", c)
		}
	}
	return kept, skipped, nil
}
