package imageprefetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
)

type stubDecoder struct {
	err error
}

func (s *stubDecoder) Decode(data []byte, name string) (Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &fakeImage{}, nil
}

func TestNewDownloaderRequiresURL(t *testing.T) {
	_, err := NewDownloader("", "", false, &stubDecoder{})
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("got %v, want ErrMissingConfig", err)
	}
}

func TestNewDownloaderRequiresDecoder(t *testing.T) {
	_, err := NewDownloader("http://example.invalid/img", "", false, nil)
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("got %v, want ErrMissingConfig", err)
	}
}

func TestNewDownloaderRejectsUnusableCacheDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := NewDownloader("http://example.invalid/img", "/no/such/dir", false, &stubDecoder{}, WithFs(fs))
	if !errors.Is(err, ErrCacheDirUnavailable) {
		t.Fatalf("got %v, want ErrCacheDirUnavailable", err)
	}
}

func TestNewDownloaderRejectsCacheDirThatIsAFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cache", []byte("not a dir"), 0o644)
	_, err := NewDownloader("http://example.invalid/img", "/cache", false, &stubDecoder{}, WithFs(fs))
	if !errors.Is(err, ErrCacheDirUnavailable) {
		t.Fatalf("got %v, want ErrCacheDirUnavailable", err)
	}
}

func TestFetchOneDecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-jpeg-bytes"))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	fs.MkdirAll("/cache", 0o755)
	d, err := NewDownloader(srv.URL, "/cache", false, &stubDecoder{}, WithFs(fs), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	img, err := d.FetchOne(context.Background())
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if img == nil {
		t.Fatal("expected a non-nil image")
	}

	ok, err := afero.Exists(fs, "/cache/0_img.jpg")
	if err != nil || !ok {
		t.Fatalf("expected cache file /cache/0_img.jpg to exist, err=%v ok=%v", err, ok)
	}
}

func TestFetchOneWrapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, err := NewDownloader(srv.URL, "", false, &stubDecoder{}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	_, err = d.FetchOne(context.Background())
	if !errors.Is(err, ErrDownloadFailure) {
		t.Fatalf("got %v, want ErrDownloadFailure", err)
	}
}

func TestFetchOneWrapsDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	d, err := NewDownloader(srv.URL, "", false, &stubDecoder{err: errors.New("not an image")}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	_, err = d.FetchOne(context.Background())
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("got %v, want ErrDecodeFailure", err)
	}
}

func TestFetchOneSequenceIncrementsAcrossFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("second-call-bytes"))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	fs.MkdirAll("/cache", 0o755)
	d, err := NewDownloader(srv.URL, "/cache", false, &stubDecoder{}, WithFs(fs), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	if _, err := d.FetchOne(context.Background()); err == nil {
		t.Fatal("expected the first call to fail")
	}
	if _, err := d.FetchOne(context.Background()); err != nil {
		t.Fatalf("FetchOne (second call): %v", err)
	}

	// the failed first call still consumed sequence number 0, so the
	// successful second call must be named 1, not a reused 0.
	if ok, _ := afero.Exists(fs, "/cache/1_img.jpg"); !ok {
		t.Fatal("expected /cache/1_img.jpg to exist after the retried sequence number")
	}
	if ok, _ := afero.Exists(fs, "/cache/0_img.jpg"); ok {
		t.Fatal("did not expect /cache/0_img.jpg: the first call never produced a body to mirror")
	}
}

func TestFetchOneToleratesDiskMirrorFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	// cache dir exists at construction time but is removed before FetchOne
	// writes into it -- the write fails, decode must still succeed.
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/cache", 0o755)
	d, err := NewDownloader(srv.URL, "/cache", false, &stubDecoder{}, WithFs(fs), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}
	fs.RemoveAll("/cache")
	// afero.MemMapFs creates intermediate dirs lazily on write; simulate an
	// unwritable target by replacing the dir with a file of the same name.
	afero.WriteFile(fs, "/cache", []byte("blocked"), 0o644)

	img, err := d.FetchOne(context.Background())
	if err != nil {
		t.Fatalf("FetchOne should tolerate a disk mirror failure, got %v", err)
	}
	if img == nil {
		t.Fatal("expected a decoded image despite the mirror failure")
	}
}

func TestCleanCacheDirSkipsSubdirectoriesAndRemovesFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/cache/nested", 0o755)
	afero.WriteFile(fs, "/cache/0_img.jpg", []byte("x"), 0o644)
	afero.WriteFile(fs, "/cache/1_img.jpg", []byte("y"), 0o644)

	d, err := NewDownloader("http://example.invalid/img", "/cache", true, &stubDecoder{}, WithFs(fs))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}
	_ = d

	if ok, _ := afero.Exists(fs, "/cache/0_img.jpg"); ok {
		t.Fatal("expected cleanup-on-construction to remove existing cache files")
	}
	if ok, _ := afero.DirExists(fs, "/cache/nested"); !ok {
		t.Fatal("expected the nested directory to survive cleanup")
	}
}

func TestCloseReleasesClientAndCleansCacheWhenConfigured(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/cache", 0o755)
	afero.WriteFile(fs, "/cache/0_img.jpg", []byte("x"), 0o644)

	d, err := NewDownloader("http://example.invalid/img", "/cache", true, &stubDecoder{}, WithFs(fs))
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}
	// construction already cleaned the dir once; write a fresh file to
	// prove Close triggers a second pass.
	afero.WriteFile(fs, "/cache/5_img.jpg", []byte("z"), 0o644)

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ok, _ := afero.Exists(fs, "/cache/5_img.jpg"); ok {
		t.Fatal("expected Close to re-run cache cleanup")
	}
}
