package retention_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/retention"
)

var _ = Describe("Policy", func() {
	Describe("ParsePolicy", func() {
		It("accepts the four known policies", func() {
			for _, s := range []string{"never", "1_day", "1_week", "1_month"} {
				p, err := retention.ParsePolicy(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(p)).To(Equal(s))
			}
		})

		It("rejects unknown policies", func() {
			_, err := retention.ParsePolicy("2_weeks")
			Expect(err).To(HaveOccurred())

			_, err = retention.ParsePolicy("")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Cutoff", func() {
		now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

		It("is +Inf for never", func() {
			Expect(math.IsInf(retention.PolicyNever.Cutoff(now), 1)).To(BeTrue())
		})

		It("is the window's age in days otherwise", func() {
			day := retention.PolicyOneDay.Cutoff(now)
			week := retention.PolicyOneWeek.Cutoff(now)
			month := retention.PolicyOneMonth.Cutoff(now)

			Expect(day).To(BeNumerically("~", float64(now.AddDate(0, 0, -1).Unix()), 1))
			Expect(week).To(BeNumerically("~", float64(now.AddDate(0, 0, -7).Unix()), 1))
			Expect(month).To(BeNumerically("~", float64(now.AddDate(0, 0, -30).Unix()), 1))
			Expect(day).To(BeNumerically(">", week))
			Expect(week).To(BeNumerically(">", month))
		})

		It("classifies items around a one week window", func() {
			cutoff := retention.PolicyOneWeek.Cutoff(now)

			at := func(daysAgo int) float64 {
				return float64(now.AddDate(0, 0, -daysAgo).Unix())
			}
			Expect(at(40) < cutoff).To(BeTrue()) // expired
			Expect(at(10) < cutoff).To(BeTrue()) // expired
			Expect(at(1) < cutoff).To(BeFalse()) // retained
		})
	})
})
