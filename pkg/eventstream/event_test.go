package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/eventstream"
)

var _ = Describe("ArchiveEvent", func() {
	Describe("NewSegmentPersistedEvent", func() {
		It("fills in the envelope", func() {
			event := eventstream.NewSegmentPersistedEvent(eventstream.SegmentMeta{
				ID: "abc", Date: "2026-02-07", StartTS: 100, EndTS: 110,
				FrameCount: 150, FileSizeBytes: 2048, VideoPath: "chunks/202602/07/abc.mp4",
			})

			Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(event.EventType).To(Equal(eventstream.EventTypeSegmentPersisted))
			Expect(event.EventID).NotTo(BeEmpty())
			Expect(event.EmittedAt).To(BeTemporally("~", time.Now(), time.Minute))
			Expect(event.Source.Host).NotTo(BeEmpty())
			Expect(event.Segment).NotTo(BeNil())
			Expect(event.Sweep).To(BeNil())
		})

		It("gives each event a distinct id", func() {
			a := eventstream.NewSegmentPersistedEvent(eventstream.SegmentMeta{ID: "x"})
			b := eventstream.NewSegmentPersistedEvent(eventstream.SegmentMeta{ID: "x"})
			Expect(a.EventID).NotTo(Equal(b.EventID))
		})
	})

	Describe("NewSweepCompletedEvent", func() {
		It("carries the sweep outcome", func() {
			event := eventstream.NewSweepCompletedEvent(eventstream.SweepMeta{
				Policy: "1_week", SegmentsDeleted: 3, FilesDeleted: 3, BytesReclaimed: 4096,
			})

			Expect(event.EventType).To(Equal(eventstream.EventTypeSweepCompleted))
			Expect(event.Sweep.SegmentsDeleted).To(Equal(3))
			Expect(event.Segment).To(BeNil())
		})
	})

	It("serializes with snake_case keys and omits the unset payload", func() {
		event := eventstream.NewSegmentPersistedEvent(eventstream.SegmentMeta{ID: "abc"})

		data, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKey("event_type"))
		Expect(decoded).To(HaveKey("source"))
		Expect(decoded).To(HaveKey("segment"))
		Expect(decoded).NotTo(HaveKey("sweep"))
	})
})
