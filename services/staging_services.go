package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"taikoweb/config"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

const (
	archiveExtension = "zip"
	maxAllocAttempts = 3
)

// CheckUploadName rejects uploads without a filename or with an extension other than .zip
func CheckUploadName(filename string) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return newError(ErrEmptyUpload, nil)
	}
	dot := strings.LastIndex(name, ".")
	if dot < 0 || strings.ToLower(name[dot+1:]) != archiveExtension {
		return newErrorf(ErrUnsupportedFileType, "%q is not a .%s archive", name, archiveExtension)
	}
	return nil
}

// Staging owns the upload root. Every upload gets its own directory named after
// an allocated identifier, user supplied names never become path segments.
type Staging struct {
	root   string
	limits config.UploadLimits
	ids    IDAllocator
	log    *zap.Logger
}

// NewStaging prepares root (made absolute) for per upload directories
func NewStaging(root string, limits config.UploadLimits, ids IDAllocator, log *zap.Logger) (*Staging, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload folder: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	if ids == nil {
		ids = UUIDAllocator{}
	}
	return &Staging{root: abs, limits: limits, ids: ids, log: log}, nil
}

// Root returns the absolute upload root
func (s *Staging) Root() string {
	return s.root
}

// Acquire allocates an identifier and exclusively creates its directory.
// The caller must Release the stage on every exit path.
func (s *Staging) Acquire() (*Stage, error) {
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		id := s.ids.NewID()
		if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\.`) {
			return nil, newErrorf(ErrIOFailure, "allocator returned unusable id %q", id)
		}

		dir := filepath.Join(s.root, id)
		payload := dir + "." + archiveExtension
		err := os.Mkdir(dir, 0o755)
		if errors.Is(err, os.ErrExist) {
			s.log.Warn("staging directory already exists, allocating a new id", zap.String("id", id))
			continue
		}
		if err != nil {
			return nil, newError(ErrIOFailure, err)
		}
		if _, err := os.Lstat(payload); err == nil {
			_ = os.Remove(dir)
			s.log.Warn("staging payload already exists, allocating a new id", zap.String("id", id))
			continue
		}
		return &Stage{ID: id, Dir: dir, payload: payload, limits: s.limits, log: s.log}, nil
	}
	return nil, newErrorf(ErrDuplicateIdentity, "no free staging identifier after %d attempts", maxAllocAttempts)
}

// Stage is one upload's isolated working area: <root>/<id> and its raw payload <root>/<id>.zip
type Stage struct {
	ID  string
	Dir string

	payload   string
	limits    config.UploadLimits
	log       *zap.Logger
	committed bool
	released  bool
}

// Receive persists the raw archive, bounded by MaxUploadBytes, and checks it is a zip file
func (st *Stage) Receive(ctx context.Context, body io.Reader) (int64, error) {
	if body == nil {
		return 0, newError(ErrEmptyUpload, nil)
	}
	out, err := os.OpenFile(st.payload, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, newError(ErrIOFailure, err)
	}

	src := &trackingReader{r: &contextReader{ctx: ctx, r: body}}
	limit := st.limits.MaxUploadBytes
	n, copyErr := io.Copy(out, io.LimitReader(src, limit+1))
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		return n, st.classifyCopyError(ctx, src, copyErr)
	case closeErr != nil:
		return n, newError(ErrIOFailure, closeErr)
	case n > limit:
		return n, newErrorf(ErrArchiveTooLarge, "upload is larger than %s", humanize.IBytes(uint64(limit)))
	case n == 0:
		return 0, newError(ErrEmptyUpload, nil)
	}

	mt, err := mimetype.DetectFile(st.payload)
	if err != nil {
		return n, newError(ErrIOFailure, err)
	}
	if !isZip(mt) {
		return n, newErrorf(ErrArchiveCorrupt, "payload is %s", mt.String())
	}
	return n, nil
}

// Extract unpacks the received archive into Dir and removes the payload.
// Every entry name is checked before anything is written, so a traversal
// attempt leaves the directory empty.
func (st *Stage) Extract(ctx context.Context) (int64, error) {
	r, err := zip.OpenReader(st.payload)
	if errors.Is(err, zip.ErrInsecurePath) {
		// the reader comes back open alongside the error
		if r != nil {
			_ = r.Close()
		}
		_ = os.Remove(st.payload)
		return 0, newError(ErrPathTraversal, err)
	}
	if err != nil {
		return 0, newError(ErrArchiveCorrupt, err)
	}
	defer func() {
		_ = r.Close()
		_ = os.Remove(st.payload)
	}()

	if len(r.File) > st.limits.MaxArchiveEntries {
		return 0, newErrorf(ErrArchiveTooLarge, "archive has %d entries, limit is %d", len(r.File), st.limits.MaxArchiveEntries)
	}

	limit := st.limits.MaxExtractedBytes
	var declared uint64
	targets := make([]string, len(r.File))
	for i, f := range r.File {
		target, err := st.entryPath(f)
		if err != nil {
			return 0, err
		}
		targets[i] = target
		declared += f.UncompressedSize64
		if declared > uint64(limit) {
			return 0, newErrorf(ErrArchiveTooLarge, "archive expands beyond %s", humanize.IBytes(uint64(limit)))
		}
	}

	var written int64
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return written, newError(ErrTimeout, err)
		}
		target := targets[i]
		if target == "" {
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, newError(ErrIOFailure, err)
			}
			continue
		}
		n, err := st.extractFile(ctx, f, target, limit-written)
		written += n
		if err != nil {
			return written, err
		}
	}

	st.log.Debug("archive extracted",
		zap.String("id", st.ID),
		zap.Int("entries", len(r.File)),
		zap.String("size", humanize.IBytes(uint64(written))),
	)
	return written, nil
}

// entryPath maps an archive entry to a path inside Dir. Absolute names, drive
// letters, parent segments and links are rejected instead of sanitized.
func (st *Stage) entryPath(f *zip.File) (string, error) {
	mode := f.Mode()
	if mode&os.ModeSymlink != 0 {
		return "", newErrorf(ErrPathTraversal, "entry %q is a symbolic link", f.Name)
	}
	if !mode.IsRegular() && !mode.IsDir() {
		return "", newErrorf(ErrArchiveCorrupt, "entry %q has unsupported type %s", f.Name, mode.Type())
	}

	name := strings.ReplaceAll(f.Name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || (len(name) >= 2 && name[1] == ':') {
		return "", newErrorf(ErrPathTraversal, "entry %q is not relative", f.Name)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", newErrorf(ErrPathTraversal, "entry %q escapes the staging directory", f.Name)
		}
	}

	clean := path.Clean(name)
	if clean == "." {
		return "", nil
	}
	target := filepath.Join(st.Dir, filepath.FromSlash(clean))
	rel, err := filepath.Rel(st.Dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", newErrorf(ErrPathTraversal, "entry %q escapes the staging directory", f.Name)
	}
	return target, nil
}

func (st *Stage) extractFile(ctx context.Context, f *zip.File, target string, remaining int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, newError(ErrIOFailure, err)
	}
	rc, err := f.Open()
	if err != nil {
		return 0, newErrorf(ErrArchiveCorrupt, "open entry %q: %v", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return 0, newErrorf(ErrArchiveCorrupt, "entry %q appears more than once", f.Name)
	}
	if err != nil {
		return 0, newError(ErrIOFailure, err)
	}

	src := &trackingReader{r: &contextReader{ctx: ctx, r: rc}}
	n, copyErr := io.Copy(out, io.LimitReader(src, remaining+1))
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		return n, st.classifyCopyError(ctx, src, copyErr)
	case closeErr != nil:
		return n, newError(ErrIOFailure, closeErr)
	case n > remaining:
		return n, newErrorf(ErrArchiveTooLarge, "archive expands beyond %s", humanize.IBytes(uint64(st.limits.MaxExtractedBytes)))
	}
	return n, nil
}

// classifyCopyError separates read side failures (client, archive, deadline) from disk failures
func (st *Stage) classifyCopyError(ctx context.Context, src *trackingReader, err error) error {
	if src.err == nil {
		return newError(ErrIOFailure, err)
	}
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(src.err, &maxBytes):
		return newErrorf(ErrArchiveTooLarge, "upload is larger than %s", humanize.IBytes(uint64(maxBytes.Limit)))
	case ctx.Err() != nil:
		return newError(ErrTimeout, ctx.Err())
	default:
		return newError(ErrArchiveCorrupt, src.err)
	}
}

// Commit hands the directory over to the catalog entry; Release keeps it afterwards
func (st *Stage) Commit() {
	st.committed = true
}

// Release removes the raw payload and, unless committed, the directory. Safe to call twice.
func (st *Stage) Release() error {
	if st == nil || st.released {
		return nil
	}
	st.released = true

	var errs []error
	if err := os.Remove(st.payload); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	if !st.committed {
		if err := os.RemoveAll(st.Dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isZip(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// trackingReader remembers the last non EOF read error so copy failures can be attributed
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
