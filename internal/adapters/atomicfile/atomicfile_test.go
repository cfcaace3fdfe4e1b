package atomicfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ucbtag/internal/adapters/atomicfile"
)

func TestWrite(t *testing.T) {
	Convey("Given a destination with previous content", t, func() {
		dir := t.TempDir()
		dest := filepath.Join(dir, "out.h5")
		So(os.WriteFile(dest, []byte("old"), 0o600), ShouldBeNil)

		Convey("When the fill succeeds", func() {
			err := atomicfile.Write(dest, func(tmp string) error {
				So(filepath.Dir(tmp), ShouldEqual, dir)
				return os.WriteFile(tmp, []byte("new"), 0o600)
			})

			Convey("Then dest holds the new content and no temp file remains", func() {
				So(err, ShouldBeNil)
				raw, _ := os.ReadFile(dest)
				So(string(raw), ShouldEqual, "new")
				entries, _ := os.ReadDir(dir)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When the fill fails", func() {
			boom := errors.New("boom")
			err := atomicfile.Write(dest, func(tmp string) error {
				_ = os.WriteFile(tmp, []byte("partial"), 0o600)
				return boom
			})

			Convey("Then dest is untouched and the temp file is gone", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				raw, _ := os.ReadFile(dest)
				So(string(raw), ShouldEqual, "old")
				entries, _ := os.ReadDir(dir)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a destination in a missing directory", t, func() {
		err := atomicfile.Write(filepath.Join(t.TempDir(), "nope", "out.h5"), func(string) error { return nil })
		So(errors.Is(err, atomicfile.ErrPublish), ShouldBeTrue)
	})
}
