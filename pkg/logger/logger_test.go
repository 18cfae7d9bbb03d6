package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default text logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", "key", "value")

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("key"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", "count", 42)

			var parsed map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &parsed)).To(Succeed())
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("creates a pretty logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty msg")

			Expect(buf.String()).To(ContainSubstring("pretty msg"))
		})

		It("writes to multiple writers", func() {
			var a, b bytes.Buffer
			l := logger.New(logger.WithWriters(&a, &b))
			l.Info("both")

			Expect(a.String()).To(ContainSubstring("both"))
			Expect(b.String()).To(ContainSubstring("both"))
		})
	})

	Describe("Multi", func() {
		It("dispatches records to all loggers", func() {
			var text, js bytes.Buffer
			l := logger.Multi(
				logger.New(logger.WithWriter(&text)),
				logger.New(logger.WithWriter(&js), logger.WithJSON(true)),
			)
			l.Info("fanned out", "day", "20250207")

			Expect(text.String()).To(ContainSubstring("fanned out"))

			var parsed map[string]any
			Expect(json.Unmarshal(js.Bytes(), &parsed)).To(Succeed())
			Expect(parsed["day"]).To(Equal("20250207"))
		})

		It("respects per-handler levels", func() {
			var quiet, chatty bytes.Buffer
			l := logger.Multi(
				logger.New(logger.WithWriter(&quiet), logger.WithDebug(false)),
				logger.New(logger.WithWriter(&chatty), logger.WithDebug(true)),
			)
			l.Debug("only one sees this")

			Expect(quiet.String()).To(BeEmpty())
			Expect(chatty.String()).To(ContainSubstring("only one sees this"))
		})

		It("carries attrs added via With", func() {
			var buf bytes.Buffer
			l := logger.Multi(logger.New(logger.WithWriter(&buf)))
			l.With(slog.String("segment", "abc123")).Info("attrs kept")

			Expect(strings.Count(buf.String(), "abc123")).To(Equal(1))
		})
	})
})
