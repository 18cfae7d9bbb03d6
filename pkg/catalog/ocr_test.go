package catalog_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/catalog"
)

var _ = Describe("OCR", func() {
	var (
		ctx context.Context
		cat *catalog.Catalog
	)

	ocrRec := func(path string, ts float64, text string, conf float64, segID string) catalog.OCRRecord {
		rec := catalog.OCRRecord{
			FramePath:   path,
			Timestamp:   ts,
			TextContent: text,
			Confidence:  conf,
			Language:    "eng",
		}
		if segID != "" {
			rec.SegmentID = &segID
		}
		return rec
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cat, err = catalog.Open(":memory:", discard())
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.InsertSegment(ctx, testSegment("seg1", 100, 110))).To(Succeed())
	})

	AfterEach(func() {
		cat.Close()
	})

	Describe("InsertOCRBatch", func() {
		It("returns 0 for an empty batch", func() {
			n, err := cat.InsertOCRBatch(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("inserts all rows in one transaction", func() {
			n, err := cat.InsertOCRBatch(ctx, []catalog.OCRRecord{
				ocrRec("/f/1.png", 101, "hello world", 0.95, "seg1"),
				ocrRec("/f/2.png", 102, "meeting notes", 0.90, "seg1"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			rows, err := cat.OCRBySegment(ctx, "seg1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Timestamp).To(Equal(101.0))
		})

		It("keeps blank text rows out of the search index", func() {
			n, err := cat.InsertOCRBatch(ctx, []catalog.OCRRecord{
				ocrRec("/f/1.png", 101, "  ", 0.95, "seg1"),
				ocrRec("/f/2.png", 102, "findable text", 0.90, "seg1"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			rows, err := cat.OCRBySegment(ctx, "seg1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			hits, err := cat.SearchText(ctx, "findable", 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].FramePath).To(Equal("/f/2.png"))
		})

		It("accepts rows without a segment", func() {
			n, err := cat.InsertOCRBatch(ctx, []catalog.OCRRecord{
				ocrRec("/f/loose.png", 500, "orphan frame", 0.8, ""),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			rows, err := cat.OCRByRange(ctx, 400, 600)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].SegmentID).To(BeNil())
		})
	})

	Describe("SearchText", func() {
		BeforeEach(func() {
			_, err := cat.InsertOCRBatch(ctx, []catalog.OCRRecord{
				ocrRec("/f/1.png", 101, "important meeting notes", 0.95, "seg1"),
				ocrRec("/f/2.png", 102, "random text here", 0.90, "seg1"),
				ocrRec("/f/3.png", 103, "another meeting agenda", 0.40, "seg1"),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches terms and ranks results", func() {
			hits, err := cat.SearchText(ctx, "meeting", 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("applies the confidence floor", func() {
			hits, err := cat.SearchText(ctx, "meeting", 0.5, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].FramePath).To(Equal("/f/1.png"))
		})

		It("supports phrase queries", func() {
			hits, err := cat.SearchText(ctx, `"meeting notes"`, 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
		})

		It("caps the result count", func() {
			hits, err := cat.SearchText(ctx, "meeting", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
		})
	})

	Describe("deletion", func() {
		BeforeEach(func() {
			_, err := cat.InsertOCRBatch(ctx, []catalog.OCRRecord{
				ocrRec("/f/1.png", 101, "cascade target", 0.95, "seg1"),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("cascades OCR rows and index entries with the segment", func() {
			Expect(cat.DeleteSegment(ctx, "seg1")).To(Succeed())

			rows, err := cat.OCRBySegment(ctx, "seg1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())

			hits, err := cat.SearchText(ctx, "cascade", 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})

		It("purges by segment for re-indexing", func() {
			Expect(cat.DeleteOCRBySegment(ctx, "seg1")).To(Succeed())

			rows, err := cat.OCRBySegment(ctx, "seg1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())

			hits, err := cat.SearchText(ctx, "cascade", 0, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())

			exists, err := cat.SegmentExists(ctx, "seg1")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})
	})
})

var _ = Describe("maintenance", func() {
	var (
		ctx context.Context
		cat *catalog.Catalog
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cat, err = catalog.Open(":memory:", discard())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cat.Close()
	})

	It("reports stats", func() {
		Expect(cat.InsertSegment(ctx, testSegment("aaa", 100, 110))).To(Succeed())
		Expect(cat.InsertAppSegment(ctx, catalog.AppSegment{
			ID: "app1", AppID: strptr("com.a"), Date: "2026-02-07", StartTS: 100, EndTS: 110,
		})).To(Succeed())

		stats, err := cat.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.SegmentCount).To(Equal(int64(1)))
		Expect(stats.AppSegmentCount).To(Equal(int64(1)))
		Expect(stats.UniqueAppCount).To(Equal(int64(1)))
		Expect(stats.TotalVideoBytes).To(Equal(int64(1024)))
		Expect(stats.TotalFrames).To(Equal(int64(150)))
		Expect(*stats.EarliestTS).To(Equal(100.0))
		Expect(*stats.LatestTS).To(Equal(110.0))
		Expect(stats.SchemaVersion).To(Equal(catalog.SchemaVersion))
	})

	It("reports nil time bounds for an empty catalog", func() {
		stats, err := cat.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.SegmentCount).To(BeZero())
		Expect(stats.EarliestTS).To(BeNil())
		Expect(stats.LatestTS).To(BeNil())
	})

	It("vacuums and passes the integrity check", func() {
		Expect(cat.Vacuum(ctx)).To(Succeed())

		ok, err := cat.CheckIntegrity(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("backs up to a private snapshot", func() {
		path := filepath.Join(GinkgoT().TempDir(), "meta.sqlite3")
		fileCat, err := catalog.Open(path, discard())
		Expect(err).NotTo(HaveOccurred())
		defer fileCat.Close()

		Expect(fileCat.InsertSegment(ctx, testSegment("aaa", 100, 110))).To(Succeed())

		backupPath, err := fileCat.Backup(ctx, "")
		Expect(err).NotTo(HaveOccurred())

		info, err := os.Stat(backupPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

		restored, err := catalog.Open(backupPath, discard())
		Expect(err).NotTo(HaveOccurred())
		defer restored.Close()

		segments, err := restored.Segments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(1))
	})
})
