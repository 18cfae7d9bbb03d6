package export_test

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/export"
)

var _ = Describe("Exporter", func() {
	var (
		ctx      context.Context
		tree     *datadir.Tree
		cat      *catalog.Catalog
		exporter *export.Exporter
	)

	insertChunk := func(id string) {
		chunkDir, err := tree.ChunksDayDir("20260207")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(chunkDir, 0o755)).To(Succeed())

		videoPath := filepath.Join(chunkDir, id+".mp4")
		Expect(os.WriteFile(videoPath, []byte("video"), 0o644)).To(Succeed())

		rel, err := filepath.Rel(tree.Root(), videoPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.InsertSegment(ctx, catalog.Segment{
			ID: id, Date: "2026-02-07", StartTS: 100, EndTS: 110,
			FrameCount: 150, FPS: 30, FileSizeBytes: 5, VideoPath: rel,
		})).To(Succeed())
	}

	zipNames := func(path string) []string {
		r, err := zip.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		var names []string
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		return names
	}

	BeforeEach(func() {
		ctx = context.Background()
		tree = datadir.New(filepath.Join(GinkgoT().TempDir(), "data"))
		Expect(tree.Ensure()).To(Succeed())

		var err error
		cat, err = catalog.Open(tree.CatalogPath(), slog.New(slog.DiscardHandler))
		Expect(err).NotTo(HaveOccurred())

		exporter = export.New(tree, cat, slog.New(slog.DiscardHandler))
	})

	AfterEach(func() {
		cat.Close()
	})

	It("refuses to export an empty archive", func() {
		_, err := exporter.Export(ctx, "", false)
		Expect(err).To(MatchError(export.ErrNothingToExport))
	})

	It("packages chunks, the catalog, and a manifest", func() {
		insertChunk("seg00000000000000aaa")
		insertChunk("seg00000000000000bbb")

		result, err := exporter.Export(ctx, "", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.SegmentCount).To(Equal(int64(2)))
		Expect(result.BytesWritten).To(BeNumerically(">", 0))
		Expect(result.Path).To(HavePrefix(tree.ExportsDir()))

		names := zipNames(result.Path)
		Expect(names).To(ContainElement("manifest.json"))
		Expect(names).To(ContainElement("meta.sqlite3"))
		Expect(names).To(ContainElement("chunks/202602/07/seg00000000000000aaa.mp4"))
		Expect(names).To(ContainElement("chunks/202602/07/seg00000000000000bbb.mp4"))
	})

	It("writes a manifest that matches the archive", func() {
		insertChunk("seg00000000000000aaa")

		out := filepath.Join(GinkgoT().TempDir(), "snapshot.zip")
		result, err := exporter.Export(ctx, out, false)
		Expect(err).NotTo(HaveOccurred())

		r, err := zip.OpenReader(out)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		var manifest export.Manifest
		for _, f := range r.File {
			if f.Name != "manifest.json" {
				continue
			}
			rc, err := f.Open()
			Expect(err).NotTo(HaveOccurred())
			Expect(json.NewDecoder(rc).Decode(&manifest)).To(Succeed())
			rc.Close()
		}

		Expect(manifest.ExportID).To(Equal(result.ExportID))
		Expect(manifest.SegmentCount).To(Equal(int64(1)))
		Expect(manifest.SchemaVersion).To(Equal(catalog.SchemaVersion))
		Expect(manifest.CreatedAt).To(BeTemporally("~", time.Now(), time.Minute))
	})

	It("embeds a catalog snapshot that opens cleanly", func() {
		insertChunk("seg00000000000000aaa")

		out := filepath.Join(GinkgoT().TempDir(), "snapshot.zip")
		_, err := exporter.Export(ctx, out, false)
		Expect(err).NotTo(HaveOccurred())

		r, err := zip.OpenReader(out)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		restoredPath := filepath.Join(GinkgoT().TempDir(), "restored.sqlite3")
		for _, f := range r.File {
			if f.Name != "meta.sqlite3" {
				continue
			}
			rc, err := f.Open()
			Expect(err).NotTo(HaveOccurred())
			data := make([]byte, f.UncompressedSize64)
			_, err = io.ReadFull(rc, data)
			Expect(err).NotTo(HaveOccurred())
			rc.Close()
			Expect(os.WriteFile(restoredPath, data, 0o600)).To(Succeed())
		}

		restored, err := catalog.Open(restoredPath, slog.New(slog.DiscardHandler))
		Expect(err).NotTo(HaveOccurred())
		defer restored.Close()

		segments, err := restored.Segments(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(1))
	})

	It("previews without writing in dry-run", func() {
		insertChunk("seg00000000000000aaa")

		out := filepath.Join(GinkgoT().TempDir(), "snapshot.zip")
		result, err := exporter.Export(ctx, out, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.DryRun).To(BeTrue())
		Expect(result.SegmentCount).To(Equal(int64(1)))
		Expect(out).NotTo(BeAnExistingFile())
	})
})
