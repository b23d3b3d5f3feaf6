package gitx_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/stackkeeper/internal/gitx"
)

var _ = Describe("ParsePorcelainStatus", func() {
	It("reports a clean worktree for empty output", func() {
		wt := gitx.ParsePorcelainStatus("")
		Expect(wt.Dirty).To(BeFalse())
		Expect(wt.Staged).To(BeZero())
		Expect(wt.Unstaged).To(BeZero())
		Expect(wt.Untracked).To(BeZero())
	})

	It("counts staged, unstaged and untracked entries", func() {
		out := "M  staged.txt\n M unstaged.txt\nMM both.txt\n?? new.txt"
		wt := gitx.ParsePorcelainStatus(out)
		Expect(wt.Staged).To(Equal(2))
		Expect(wt.Unstaged).To(Equal(2))
		Expect(wt.Untracked).To(Equal(1))
		Expect(wt.Dirty).To(BeTrue())
	})

	It("ignores short lines", func() {
		wt := gitx.ParsePorcelainStatus("\nM\n")
		Expect(wt.Dirty).To(BeFalse())
	})
})

var _ = Describe("ParseCount", func() {
	It("parses a plain count", func() {
		Expect(gitx.ParseCount("7")).To(Equal(7))
	})

	It("trims whitespace", func() {
		Expect(gitx.ParseCount("  3\n")).To(Equal(3))
	})

	It("rejects garbage", func() {
		_, err := gitx.ParseCount("seven")
		Expect(err).To(HaveOccurred())
	})

	It("rejects negative counts", func() {
		_, err := gitx.ParseCount("-1")
		Expect(err).To(HaveOccurred())
	})
})
