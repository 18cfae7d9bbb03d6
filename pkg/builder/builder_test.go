package builder_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/builder"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/encoder"
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/frame"
)

type fixedProber struct{}

func (fixedProber) ProbeImageSize(string) (int, int, error) { return 1920, 1080, nil }

type fakeEncoder struct {
	calls     int
	failCalls map[int]error
	available bool
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{failCalls: map[int]error{}, available: true}
}

func (e *fakeEncoder) Available() bool { return e.available }

func (e *fakeEncoder) Encode(_ context.Context, paths []string, dst string, _ encoder.Options) (*encoder.Result, error) {
	e.calls++
	if err, ok := e.failCalls[e.calls]; ok {
		return nil, err
	}
	data := []byte(strings.Repeat("v", len(paths)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return nil, err
	}
	w, h := 1920, 1080
	return &encoder.Result{SizeBytes: int64(len(data)), Width: &w, Height: &h}, nil
}

type recordingPublisher struct {
	events []*eventstream.ArchiveEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *eventstream.ArchiveEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ = Describe("Builder", func() {
	const day = "20260207"

	var (
		ctx       context.Context
		tree      *datadir.Tree
		cat       *catalog.Catalog
		enc       *fakeEncoder
		publisher *recordingPublisher
		logger    *slog.Logger
		dayDir    string
	)

	writeFrame := func(name string, mtime time.Time) {
		path := filepath.Join(dayDir, name)
		Expect(os.WriteFile(path, []byte("png"), 0o644)).To(Succeed())
		Expect(os.Chtimes(path, mtime, mtime)).To(Succeed())
	}

	writeFrames := func(n int) {
		base := time.Now().Add(-time.Hour)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("20260207-1430%02d-%08d-com.example.app", i%60, i)
			writeFrame(name, base.Add(time.Duration(i)*time.Second))
		}
	}

	newBuilder := func() *builder.Builder {
		loader := frame.NewLoader(fixedProber{}, logger, nil)
		return builder.New(tree, loader, enc, cat, publisher, logger, builder.Options{
			FPS: 30, SegmentSeconds: 0.1, CRF: 28, Preset: "veryfast",
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.DiscardHandler)
		enc = newFakeEncoder()
		publisher = &recordingPublisher{}

		tree = datadir.New(filepath.Join(GinkgoT().TempDir(), "data"))
		Expect(tree.Ensure()).To(Succeed())

		var err error
		dayDir, err = tree.TempDayDir(day)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(dayDir, 0o755)).To(Succeed())

		cat, err = catalog.Open(":memory:", logger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cat.Close()
	})

	It("builds segments of at most fps*seconds frames", func() {
		writeFrames(7) // limit is 3 per segment

		result, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.SegmentsBuilt).To(Equal(3))
		Expect(result.FramesEncoded).To(Equal(7))
		Expect(result.Failed).To(BeZero())

		segments, err := cat.Segments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(3))
	})

	It("writes chunks under the day directory with relative catalog paths", func() {
		writeFrames(2)

		_, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())

		segments, err := cat.Segments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(1))

		seg := segments[0]
		Expect(seg.Date).To(Equal("2026-02-07"))
		Expect(seg.VideoPath).To(HavePrefix(filepath.Join("chunks", "202602", "07")))
		Expect(filepath.IsAbs(seg.VideoPath)).To(BeFalse())
		Expect(filepath.Join(tree.Root(), seg.VideoPath)).To(BeAnExistingFile())
		Expect(*seg.Width).To(Equal(1920))
	})

	It("records app attribution spans", func() {
		base := time.Now().Add(-time.Hour)
		writeFrame("20260207-143000-00000001-com.example.a", base)
		writeFrame("20260207-143001-00000002-com.example.a", base.Add(time.Second))
		writeFrame("20260207-143002-00000003-com.example.b", base.Add(2*time.Second))

		_, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())

		spans, err := cat.AppSegments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(spans).To(HaveLen(2))
		Expect(*spans[0].AppID).To(Equal("com.example.a"))
		Expect(*spans[1].AppID).To(Equal("com.example.b"))
	})

	It("publishes a persisted event per segment", func() {
		writeFrames(2)

		_, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())

		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].EventType).To(Equal(eventstream.EventTypeSegmentPersisted))
		Expect(publisher.events[0].Segment.FrameCount).To(Equal(2))
	})

	It("isolates per-segment encode failures", func() {
		writeFrames(7)
		enc.failCalls[2] = errors.New("encode boom")

		result, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.SegmentsBuilt).To(Equal(2))
		Expect(result.Failed).To(Equal(1))

		segments, err := cat.Segments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(2))
	})

	It("returns an empty result for a frameless day", func() {
		result, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.SegmentsBuilt).To(BeZero())
	})

	It("fails fast when the encoder is unavailable", func() {
		enc.available = false
		_, err := newBuilder().BuildDay(ctx, day)
		Expect(err).To(HaveOccurred())
	})

	It("stops between segments on cancellation, keeping completed work", func() {
		writeFrames(7)

		cancelCtx, cancel := context.WithCancel(ctx)
		wrapped := &cancelAfterFirst{inner: enc, cancel: cancel}
		loader := frame.NewLoader(fixedProber{}, logger, nil)
		b := builder.New(tree, loader, wrapped, cat, publisher, logger, builder.Options{
			FPS: 30, SegmentSeconds: 0.1, CRF: 28, Preset: "veryfast",
		})

		result, err := b.BuildDay(cancelCtx, day)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.SegmentsBuilt).To(Equal(1))

		segments, segErr := cat.Segments(ctx)
		Expect(segErr).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(1))
	})

	It("does not publish events for failed segments", func() {
		writeFrames(3)
		enc.failCalls[1] = errors.New("encode boom")

		_, err := newBuilder().BuildDay(ctx, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.events).To(BeEmpty())
	})
})

type cancelAfterFirst struct {
	inner  encoder.Encoder
	cancel context.CancelFunc
	done   bool
}

func (c *cancelAfterFirst) Available() bool { return c.inner.Available() }

func (c *cancelAfterFirst) Encode(ctx context.Context, paths []string, dst string, opts encoder.Options) (*encoder.Result, error) {
	res, err := c.inner.Encode(ctx, paths, dst, opts)
	if !c.done {
		c.done = true
		c.cancel()
	}
	return res, err
}

var _ = Describe("Options", func() {
	It("derives the frame budget from fps and duration", func() {
		opts := builder.Options{FPS: 30, SegmentSeconds: 5}
		Expect(opts.MaxFramesPerSegment()).To(Equal(150))
	})
})
