package buildcmder_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	buildcmder "github.com/papercomputeco/playback/cmd/playback/build"
)

var _ = Describe("NewBuildCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := buildcmder.NewBuildCmd()
		Expect(cmd.Use).To(Equal("build"))
	})

	It("rejects positional arguments", func() {
		cmd := buildcmder.NewBuildCmd()
		err := cmd.Args(cmd, []string{"20260815"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --day flag defaulting to empty", func() {
		cmd := buildcmder.NewBuildCmd()
		f := cmd.Flags().Lookup("day")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})

	It("has a --watch flag with shorthand", func() {
		cmd := buildcmder.NewBuildCmd()
		f := cmd.Flags().Lookup("watch")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("w"))
		Expect(f.DefValue).To(Equal("false"))
	})

	It("defers encode settings to the config by default", func() {
		cmd := buildcmder.NewBuildCmd()
		for flag, def := range map[string]string{
			"fps":             "0",
			"segment-seconds": "0",
			"crf":             "0",
			"preset":          "",
		} {
			f := cmd.Flags().Lookup(flag)
			Expect(f).NotTo(BeNil(), flag)
			Expect(f.DefValue).To(Equal(def), flag)
		}
	})

	It("debounces watch builds by two seconds by default", func() {
		cmd := buildcmder.NewBuildCmd()
		f := cmd.Flags().Lookup("debounce")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal((2 * time.Second).String()))
	})
})
