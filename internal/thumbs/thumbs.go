package thumbs

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metrics"
	"media-library/internal/workers"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	thumbSize    = 320
	jpegQuality  = 80
	queueDepth   = 256
	maxWorkerCap = 8
)

// Request asks the worker to produce a thumbnail for one source file.
type Request struct {
	SourcePath string // absolute path of the media file
	RelPath    string // root-relative path, the cache key input
}

// Ready reports a thumbnail artifact that became available.
type Ready struct {
	SourcePath    string
	ThumbnailPath string
}

// Generator produces thumbnail artifacts in a background worker pool.
// Submission is fire-and-forget: callers queue a request and may subscribe
// to the Ready channel for completion notifications. The existence of the
// cache file is the sole signal of "thumbnail ready" at query time.
type Generator struct {
	cacheDir string
	enabled  bool

	queue   chan Request
	ready   chan Ready
	pending sync.Map // relPath -> struct{}, dedupes in-flight work

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Generator writing into cacheDir and starts its workers.
func New(cacheDir string, enabled bool) *Generator {
	g := &Generator{
		cacheDir: cacheDir,
		enabled:  enabled,
		queue:    make(chan Request, queueDepth),
		ready:    make(chan Ready, queueDepth),
		stop:     make(chan struct{}),
	}

	if !enabled {
		logging.Debug("Thumbnail generator disabled")
		return g
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("Failed to create thumbnail cache dir %s: %v", cacheDir, err)
	}

	count := workers.ForCPU(maxWorkerCap)
	logging.Debug("Thumbnail generator: %d workers, cache dir %s", count, cacheDir)
	for i := 0; i < count; i++ {
		g.wg.Add(1)
		go g.worker()
	}
	return g
}

// IsEnabled reports whether generation is active.
func (g *Generator) IsEnabled() bool {
	return g.enabled
}

// CacheKey returns the deterministic artifact filename for a relative path.
func (g *Generator) CacheKey(relPath string) string {
	return fmt.Sprintf("%x.jpg", md5.Sum([]byte(relPath)))
}

// CachePath returns the on-disk location of the artifact for relPath.
func (g *Generator) CachePath(relPath string) string {
	return filepath.Join(g.cacheDir, g.CacheKey(relPath))
}

// Exists reports whether the artifact for relPath is already on disk.
func (g *Generator) Exists(relPath string) bool {
	_, err := os.Stat(g.CachePath(relPath))
	return err == nil
}

// Enqueue submits a generation request without blocking. Requests are
// dropped when the queue is full or the same path is already in flight;
// a later query will simply re-request.
func (g *Generator) Enqueue(sourcePath, relPath string) {
	if !g.enabled {
		return
	}
	if _, inFlight := g.pending.LoadOrStore(relPath, struct{}{}); inFlight {
		return
	}

	select {
	case g.queue <- Request{SourcePath: sourcePath, RelPath: relPath}:
		metrics.ThumbsQueued.Inc()
	default:
		g.pending.Delete(relPath)
		metrics.ThumbsDropped.Inc()
	}
}

// Ready returns the channel of completion notifications. Notifications are
// dropped if nobody is draining the channel; the cache file is still the
// source of truth.
func (g *Generator) Ready() <-chan Ready {
	return g.ready
}

// Close stops the workers, waits for in-flight generation to finish, and
// closes the Ready channel.
func (g *Generator) Close() {
	g.stopOnce.Do(func() {
		close(g.stop)
		g.wg.Wait()
		close(g.ready)
	})
}

func (g *Generator) worker() {
	defer g.wg.Done()
	for {
		select {
		case req := <-g.queue:
			g.generate(req)
			g.pending.Delete(req.RelPath)
		case <-g.stop:
			return
		}
	}
}

func (g *Generator) generate(req Request) {
	cachePath := g.CachePath(req.RelPath)
	if _, err := os.Stat(cachePath); err == nil {
		g.notify(req.SourcePath, cachePath)
		return
	}

	img, err := g.decode(req.SourcePath)
	if err != nil {
		logging.Debug("Thumbnail decode failed for %s: %v", req.SourcePath, err)
		metrics.ThumbsErrors.Inc()
		return
	}

	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		logging.Warn("Failed to encode thumbnail for %s: %v", req.SourcePath, err)
		metrics.ThumbsErrors.Inc()
		return
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		logging.Warn("Failed to write thumbnail %s: %v", cachePath, err)
		metrics.ThumbsErrors.Inc()
		return
	}

	metrics.ThumbsGenerated.Inc()
	logging.Debug("Thumbnail cached: %s", cachePath)
	g.notify(req.SourcePath, cachePath)
}

func (g *Generator) notify(sourcePath, thumbnailPath string) {
	select {
	case g.ready <- Ready{SourcePath: sourcePath, ThumbnailPath: thumbnailPath}:
	default:
	}
}

// decode opens the source as an image, falling back to an ffmpeg frame
// grab for video files.
func (g *Generator) decode(sourcePath string) (image.Image, error) {
	ext := filepath.Ext(sourcePath)
	if mediatypes.GetMediaType(ext) == mediatypes.MediaTypeVideo {
		return extractVideoFrame(sourcePath)
	}

	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// imaging delegates to image.Decode internally, but a plain open picks
	// up decoders it does not know about (webp).
	file, openErr := os.Open(sourcePath)
	if openErr != nil {
		return nil, err
	}
	defer file.Close()

	img, _, decodeErr := image.Decode(file)
	if decodeErr != nil {
		return nil, fmt.Errorf("all decode methods failed: %w", err)
	}
	return img, nil
}

// extractVideoFrame grabs a single frame roughly one second in.
func extractVideoFrame(sourcePath string) (image.Image, error) {
	cmd := exec.Command("ffmpeg",
		"-ss", "1", "-i", sourcePath,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "mjpeg", "-",
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w", err)
	}

	img, err := jpeg.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extracted frame: %w", err)
	}
	return img, nil
}
