package assets_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/okian/gamestore/internal/adapters/assets"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDirLister(t *testing.T) {
	Convey("Given an asset directory with mixed entries", t, func() {
		dir := t.TempDir()
		for _, name := range []string{"b.PNG", "a.jpg", "notes.txt", "c.svg", "d.jpeg", "e.gif", "README"} {
			writeFile(t, dir, name, []byte("x"))
		}
		So(os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o700), ShouldBeNil)

		Convey("When listing with the default extensions", func() {
			names, err := assets.NewDirLister(dir).List(context.Background())

			Convey("Then only image files are returned in lexicographic order", func() {
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"a.jpg", "b.PNG", "c.svg", "d.jpeg", "e.gif"})
			})
		})

		Convey("When listing with custom extensions", func() {
			names, err := assets.NewDirLister(dir, "PNG", " .svg ").List(context.Background())

			Convey("Then they match with or without the dot", func() {
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"b.PNG", "c.svg"})
			})
		})

		Convey("When the directory is missing", func() {
			_, err := assets.NewDirLister(filepath.Join(dir, "nope")).List(context.Background())

			Convey("Then ErrList is returned", func() {
				So(errors.Is(err, assets.ErrList), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := assets.NewDirLister(dir).List(ctx)

			Convey("Then the listing is skipped", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestFileLoader(t *testing.T) {
	Convey("Given a directory with good and broken files", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "ok.png", pngBytes(t))
		writeFile(t, dir, "broken.jpg", []byte("not a jpeg"))
		writeFile(t, dir, "logo.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
		l := assets.NewFileLoader(dir)
		ctx := context.Background()

		Convey("Then a valid raster image loads", func() {
			So(l.Load(ctx, "ok.png"), ShouldBeNil)
		})

		Convey("Then vector images are only read", func() {
			So(l.Load(ctx, "logo.svg"), ShouldBeNil)
		})

		Convey("Then a corrupt raster image fails to decode", func() {
			So(errors.Is(l.Load(ctx, "broken.jpg"), assets.ErrDecode), ShouldBeTrue)
		})

		Convey("Then a missing file fails to load", func() {
			So(errors.Is(l.Load(ctx, "missing.png"), assets.ErrLoad), ShouldBeTrue)
		})

		Convey("Then names outside the directory are rejected", func() {
			So(errors.Is(l.Load(ctx, "../ok.png"), assets.ErrInvalidName), ShouldBeTrue)
			So(errors.Is(l.Load(ctx, ".."), assets.ErrInvalidName), ShouldBeTrue)
			So(errors.Is(l.Load(ctx, ""), assets.ErrInvalidName), ShouldBeTrue)
		})
	})
}

func TestWatcher(t *testing.T) {
	Convey("Given a watched directory", t, func() {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan struct{}, 10)
		lister := assets.NewDirLister(dir)
		w, err := assets.NewWatcher(dir, func(context.Context) { changes <- struct{}{} },
			assets.WithDebounce(150*time.Millisecond),
			assets.WithFilter(lister.Matches))
		So(err, ShouldBeNil)
		So(w.Start(ctx), ShouldBeNil)
		defer w.Stop()

		Convey("When several images are added at once", func() {
			for _, name := range []string{"a.jpg", "b.jpg", "c.png"} {
				writeFile(t, dir, name, []byte("x"))
			}

			Convey("Then the callback runs once after the burst", func() {
				select {
				case <-changes:
				case <-time.After(3 * time.Second):
					t.Fatal("no change reported")
				}
				time.Sleep(400 * time.Millisecond)
				So(len(changes), ShouldEqual, 0)
			})
		})

		Convey("When a non-image file is added", func() {
			writeFile(t, dir, "notes.txt", []byte("x"))

			Convey("Then no callback runs", func() {
				select {
				case <-changes:
					t.Fatal("unexpected change")
				case <-time.After(500 * time.Millisecond):
				}
			})
		})

		Convey("When the watcher is stopped twice", func() {
			So(w.Stop(), ShouldBeNil)
			So(w.Stop(), ShouldBeNil)
		})
	})
}

func TestWatcherStartFailure(t *testing.T) {
	Convey("Given watchers on a directory that does not exist", t, func() {
		missing := filepath.Join(t.TempDir(), "missing")
		before := runtime.NumGoroutine()

		for i := 0; i < 20; i++ {
			w, err := assets.NewWatcher(missing, func(context.Context) {})
			So(err, ShouldBeNil)

			err = w.Start(context.Background())
			So(errors.Is(err, assets.ErrWatch), ShouldBeTrue)
			So(w.Stop(), ShouldBeNil)
		}

		Convey("Then every failed start releases its watcher", func() {
			deadline := time.Now().Add(time.Second)
			for runtime.NumGoroutine() > before+2 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			So(runtime.NumGoroutine(), ShouldBeLessThanOrEqualTo, before+2)
		})
	})
}
