package exportcmder_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	exportcmder "github.com/papercomputeco/playback/cmd/playback/export"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/logger"
)

var _ = Describe("NewExportCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := exportcmder.NewExportCmd()
		Expect(cmd.Use).To(Equal("export"))
	})

	It("has output and dry-run flags", func() {
		cmd := exportcmder.NewExportCmd()

		output := cmd.Flags().Lookup("output")
		Expect(output).NotTo(BeNil())
		Expect(output.Shorthand).To(Equal("o"))

		Expect(cmd.Flags().Lookup("dry-run")).NotTo(BeNil())
	})
})

var _ = Describe("Export command execution", func() {
	var (
		tmpDir  string
		origDir string
		tree    *datadir.Tree
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "playback-export-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		dataDir := filepath.Join(tmpDir, "data")
		cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".playback"))
		Expect(err).NotTo(HaveOccurred())
		cfg := config.NewDefaultConfig()
		cfg.Storage.DataDir = dataDir
		Expect(cfger.SaveConfig(cfg)).To(Succeed())

		tree = datadir.New(dataDir)
		Expect(tree.Ensure()).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	runExport := func(args ...string) (string, error) {
		cmd := exportcmder.NewExportCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("fails when no catalog exists", func() {
		_, err := runExport()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("nothing to export"))
	})

	It("writes a snapshot holding the catalog and chunks", func() {
		log := logger.New(logger.WithWriter(io.Discard))
		cat, err := catalog.Open(tree.CatalogPath(), log)
		Expect(err).NotTo(HaveOccurred())

		chunkDir, err := tree.ChunksDayDir("20260207")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(chunkDir, 0o755)).To(Succeed())
		video := filepath.Join(chunkDir, "aaaaaaaaaaaaaaaaaaaa.mp4")
		Expect(os.WriteFile(video, []byte("mp4"), 0o644)).To(Succeed())

		rel, err := filepath.Rel(tree.Root(), video)
		Expect(err).NotTo(HaveOccurred())

		err = cat.InsertSegment(context.Background(), catalog.Segment{
			ID:            "aaaaaaaaaaaaaaaaaaaa",
			Date:          "2026-02-07",
			StartTS:       1700000000,
			EndTS:         1700000005,
			FrameCount:    150,
			FPS:           30,
			FileSizeBytes: 3,
			VideoPath:     rel,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.Close()).To(Succeed())

		dst := filepath.Join(tmpDir, "snapshot.zip")
		out, err := runExport("--output", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(BeEmpty())

		info, err := os.Stat(dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(BeNumerically(">", 0))
	})

	It("writes nothing on a dry run", func() {
		log := logger.New(logger.WithWriter(io.Discard))
		cat, err := catalog.Open(tree.CatalogPath(), log)
		Expect(err).NotTo(HaveOccurred())
		err = cat.InsertSegment(context.Background(), catalog.Segment{
			ID:        "bbbbbbbbbbbbbbbbbbbb",
			Date:      "2026-02-07",
			StartTS:   1700000000,
			EndTS:     1700000005,
			VideoPath: "chunks/202602/07/bbbbbbbbbbbbbbbbbbbb.mp4",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.Close()).To(Succeed())

		_, err = runExport("--dry-run")
		Expect(err).NotTo(HaveOccurred())

		entries, err := os.ReadDir(tree.ExportsDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
