// Package output persists generated modules. Each generator.Output becomes
// one unit named <name>.ts inside a caller-chosen location: a local
// directory or an object-store bucket.
package output

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/filestore"
	"github.com/koustreak/catalogts/internal/generator"
	"github.com/koustreak/catalogts/internal/logger"
)

// Ext is appended to every output name.
const Ext = ".ts"

// ContentType is sent with uploaded modules and served by the preview server.
const ContentType = "application/typescript"

// Sink persists one output.
type Sink interface {
	Write(ctx context.Context, out generator.Output) error
}

// FileName returns the unit name for out, rejecting names that would
// escape the output location.
func FileName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid output name %q", name)
	}
	return name + Ext, nil
}

// DirSink writes <dir>/<name>.ts.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "create output directory", err)
	}
	return &DirSink{dir: dir}, nil
}

// Write replaces the file atomically: readers never see a half-written
// module.
func (s *DirSink) Write(ctx context.Context, out generator.Output) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "write "+out.Name, err)
	}
	name, err := FileName(out.Name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(out.Body); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrKindUnknown, "write "+name, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "close "+name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "chmod "+name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "rename "+name, err)
	}
	return nil
}

// StoreSink uploads <prefix><name>.ts to a bucket. Objects whose ETag
// already matches the body are left alone.
type StoreSink struct {
	store  filestore.Store
	bucket string
	prefix string
	log    *logger.Logger
}

// NewStoreSink makes sure bucket exists.
func NewStoreSink(ctx context.Context, store filestore.Store, bucket, prefix string, log *logger.Logger) (*StoreSink, error) {
	if bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "bucket is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("prepare bucket: %w", err)
	}
	return &StoreSink{store: store, bucket: bucket, prefix: prefix, log: log}, nil
}

func (s *StoreSink) Write(ctx context.Context, out generator.Output) error {
	name, err := FileName(out.Name)
	if err != nil {
		return err
	}
	key := s.prefix + name
	sum := md5.Sum([]byte(out.Body))
	etag := hex.EncodeToString(sum[:])

	info, err := s.store.StatObject(ctx, s.bucket, key)
	switch {
	case err == nil && strings.Trim(info.ETag, `"`) == etag:
		s.log.With().Str("bucket", s.bucket).Str("key", key).Logger().Debug("module unchanged")
		return nil
	case err != nil && !errs.IsNotFound(err):
		return err
	}

	_, err = s.store.PutObject(ctx, s.bucket, key, bytes.NewReader([]byte(out.Body)), int64(len(out.Body)), filestore.PutOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{"schema": out.Name},
	})
	return err
}

// WriteAll hands every output to sink with at most limit writes in flight.
// A limit below 1 means one at a time. The first failure cancels the rest.
func WriteAll(ctx context.Context, sink Sink, outs []generator.Output, limit int) error {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, out := range outs {
		g.Go(func() error {
			if err := sink.Write(ctx, out); err != nil {
				return fmt.Errorf("write %s: %w", out.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
