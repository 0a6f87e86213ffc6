package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckUploadName(t *testing.T) {
	cases := map[string]error{
		"":            ErrEmptyUpload,
		"   ":         ErrEmptyUpload,
		"song":        ErrUnsupportedFileType,
		"song.tar.gz": ErrUnsupportedFileType,
		"song.zip.sh": ErrUnsupportedFileType,
		"song.zip":    nil,
		"SONG.ZIP":    nil,
		"../song.zip": nil,
	}
	for name, want := range cases {
		err := CheckUploadName(name)
		if want == nil && err != nil {
			t.Fatalf("%q: unexpected error %v", name, err)
		}
		if want != nil && !errors.Is(err, want) {
			t.Fatalf("%q: expected %v got %v", name, want, err)
		}
	}
}

func stageArchive(t *testing.T, staging *Staging, payload []byte) (*Stage, error) {
	t.Helper()
	stage, err := staging.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	t.Cleanup(func() { _ = stage.Release() })
	ctx := context.Background()
	if _, err := stage.Receive(ctx, bytes.NewReader(payload)); err != nil {
		return stage, err
	}
	_, err = stage.Extract(ctx)
	return stage, err
}

func TestStageExtractsIntoIsolatedDirectory(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)
	payload := buildZip(t,
		zipEntry{Name: "song.tja", Body: "chart"},
		zipEntry{Name: "track.ogg", Body: "audio"},
		zipEntry{Name: "extras/", Body: ""},
		zipEntry{Name: "extras/cover.png", Body: "png"},
	)

	stage, err := stageArchive(t, staging, payload)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if filepath.Dir(stage.Dir) != staging.Root() || filepath.Base(stage.Dir) != stage.ID {
		t.Fatalf("stage dir %s is not <root>/<id>", stage.Dir)
	}
	data, err := os.ReadFile(filepath.Join(stage.Dir, "song.tja"))
	if err != nil || string(data) != "chart" {
		t.Fatalf("unexpected chart content %q err=%v", data, err)
	}
	if _, err := os.Stat(filepath.Join(stage.Dir, "extras", "cover.png")); err != nil {
		t.Fatalf("expected nested file: %v", err)
	}
	if _, err := os.Stat(stage.Dir + ".zip"); !os.IsNotExist(err) {
		t.Fatalf("raw payload should be removed after extraction")
	}
}

func TestStageRejectsPathTraversal(t *testing.T) {
	names := []string{
		"../evil.txt",
		"nested/../../evil.txt",
		`..\evil.txt`,
		"/tmp/evil.txt",
		"C:/evil.txt",
	}
	for _, name := range names {
		t.Run(strings.ReplaceAll(name, "/", "_"), func(t *testing.T) {
			staging := newTestStaging(t, testLimits(), nil)
			payload := buildZip(t,
				zipEntry{Name: "song.tja", Body: "chart"},
				zipEntry{Name: name, Body: "pwned"},
			)
			stage, err := stageArchive(t, staging, payload)
			if !errors.Is(err, ErrPathTraversal) {
				t.Fatalf("expected path traversal, got %v", err)
			}
			// nothing may be written, not even the legitimate entry
			if files := listTree(t, stage.Dir); len(files) != 0 {
				t.Fatalf("expected empty staging dir, got %v", files)
			}
			for _, dir := range []string{staging.Root(), filepath.Dir(staging.Root())} {
				if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
					t.Fatalf("file escaped the staging directory into %s", dir)
				}
			}
		})
	}
}

func TestStageStrictReaderLeavesNoOpenPayload(t *testing.T) {
	t.Setenv("GODEBUG", "zipinsecurepath=0")
	staging := newTestStaging(t, testLimits(), nil)
	payload := buildZip(t,
		zipEntry{Name: "song.tja", Body: "chart"},
		zipEntry{Name: "../evil.txt", Body: "pwned"},
	)

	stage, err := stageArchive(t, staging, payload)
	if !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected path traversal, got %v", err)
	}
	if _, err := os.Stat(stage.payload); !os.IsNotExist(err) {
		t.Fatalf("raw payload should be removed, stat err=%v", err)
	}

	root, err := filepath.EvalSymlinks(staging.Root())
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	payloadPath := filepath.Join(root, stage.ID+".zip")
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("descriptor table unavailable: %v", err)
	}
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name()))
		if err != nil {
			continue
		}
		if strings.HasPrefix(target, payloadPath) {
			t.Fatalf("descriptor %s still open on %s", fd.Name(), target)
		}
	}
}

func TestStageRejectsSymlinkEntries(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)
	payload := buildZip(t,
		zipEntry{Name: "link.ogg", Body: "/etc/passwd", Mode: os.ModeSymlink | 0o777},
	)
	if _, err := stageArchive(t, staging, payload); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected path traversal for symlink, got %v", err)
	}
}

func TestStageRejectsArchiveBomb(t *testing.T) {
	limits := testLimits()
	limits.MaxExtractedBytes = 64 << 10
	staging := newTestStaging(t, limits, nil)
	payload := buildZip(t,
		zipEntry{Name: "song.tja", Body: "chart"},
		zipEntry{Name: "track.ogg", Body: strings.Repeat("\x00", 1<<20)},
	)
	if len(payload) > int(limits.MaxUploadBytes) {
		t.Fatalf("compressed payload should be small, got %d bytes", len(payload))
	}

	stage, err := stageArchive(t, staging, payload)
	if !errors.Is(err, ErrArchiveTooLarge) {
		t.Fatalf("expected archive too large, got %v", err)
	}
	if KindOf(err) != KindLimit {
		t.Fatalf("expected limit kind, got %s", KindOf(err))
	}
	if files := listTree(t, stage.Dir); len(files) != 0 {
		t.Fatalf("expected nothing extracted, got %v", files)
	}
}

func TestStageRejectsTooManyEntries(t *testing.T) {
	limits := testLimits()
	limits.MaxArchiveEntries = 2
	staging := newTestStaging(t, limits, nil)
	payload := buildZip(t,
		zipEntry{Name: "a.tja", Body: "a"},
		zipEntry{Name: "b.ogg", Body: "b"},
		zipEntry{Name: "c.txt", Body: "c"},
	)
	if _, err := stageArchive(t, staging, payload); !errors.Is(err, ErrArchiveTooLarge) {
		t.Fatalf("expected archive too large, got %v", err)
	}
}

func TestStageRejectsOversizedUpload(t *testing.T) {
	limits := testLimits()
	limits.MaxUploadBytes = 128
	staging := newTestStaging(t, limits, nil)
	payload := buildZip(t, zipEntry{Name: "song.tja", Body: strings.Repeat("x", 4096)}, zipEntry{Name: "noise.ogg", Body: "abcdefghijklmnopqrstuvwxyz0123456789"})
	if _, err := stageArchive(t, staging, payload); !errors.Is(err, ErrArchiveTooLarge) {
		t.Fatalf("expected archive too large, got %v", err)
	}
}

func TestStageRejectsCorruptPayload(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)
	if _, err := stageArchive(t, staging, []byte("this is definitely not a zip archive")); !errors.Is(err, ErrArchiveCorrupt) {
		t.Fatalf("expected corrupt archive, got %v", err)
	}

	truncated := songZip(t)
	truncated = truncated[:len(truncated)/2]
	if _, err := stageArchive(t, staging, truncated); !errors.Is(err, ErrArchiveCorrupt) {
		t.Fatalf("expected corrupt archive for truncated zip, got %v", err)
	}
}

func TestStageRejectsEmptyPayload(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)
	if _, err := stageArchive(t, staging, nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected empty upload, got %v", err)
	}
}

func TestStageHonoursDeadline(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)
	stage, err := staging.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer stage.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stage.Receive(ctx, bytes.NewReader(songZip(t))); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestReleaseRemovesUncommittedStage(t *testing.T) {
	staging := newTestStaging(t, testLimits(), nil)

	discarded, err := stageArchive(t, staging, songZip(t))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := discarded.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(discarded.Dir); !os.IsNotExist(err) {
		t.Fatalf("uncommitted stage should be removed")
	}

	kept, err := stageArchive(t, staging, songZip(t))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	kept.Commit()
	if err := kept.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(kept.Dir, "song.tja")); err != nil {
		t.Fatalf("committed stage should be kept: %v", err)
	}
	if err := kept.Release(); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
}

func TestAcquireSkipsExistingDirectories(t *testing.T) {
	ids := &fixedAllocator{ids: []string{"taken", "free"}}
	staging := newTestStaging(t, testLimits(), ids)
	if err := os.Mkdir(filepath.Join(staging.Root(), "taken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stage, err := staging.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer stage.Release()
	if stage.ID != "free" {
		t.Fatalf("expected a fresh id, got %s", stage.ID)
	}
}

func TestAcquireGivesUpOnPersistentCollision(t *testing.T) {
	ids := &fixedAllocator{ids: []string{"taken"}}
	staging := newTestStaging(t, testLimits(), ids)
	if err := os.Mkdir(filepath.Join(staging.Root(), "taken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := staging.Acquire(); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected duplicate identity, got %v", err)
	}
}

func TestAcquireRejectsPathLikeIDs(t *testing.T) {
	staging := newTestStaging(t, testLimits(), &fixedAllocator{ids: []string{"../escape"}})
	if _, err := staging.Acquire(); !errors.Is(err, ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
}
