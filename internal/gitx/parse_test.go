// SPDX-License-Identifier: MIT
package gitx_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/gitx"
)

var _ = Describe("ParseLsRemoteHeads", func() {
	It("keeps remote order and strips the ref prefix", func() {
		out := "aaa\trefs/heads/1.20\nbbb\trefs/heads/main\nccc\trefs/heads/feature/x\n"
		Expect(gitx.ParseLsRemoteHeads(out)).To(Equal([]string{"1.20", "main", "feature/x"}))
	})

	It("ignores tags and malformed lines", func() {
		out := "aaa\trefs/tags/v1\ngarbage\n\nbbb\trefs/heads/1.19\n"
		Expect(gitx.ParseLsRemoteHeads(out)).To(Equal([]string{"1.19"}))
	})

	It("returns nil for empty output", func() {
		Expect(gitx.ParseLsRemoteHeads("")).To(BeNil())
	})
})

var _ = Describe("ParseRevListCount", func() {
	DescribeTable("parses left/right counts",
		func(input string, ahead, behind int) {
			a, b := gitx.ParseRevListCount(input)
			Expect(a).To(Equal(ahead))
			Expect(b).To(Equal(behind))
		},
		Entry("tab separated", "3\t1\n", 3, 1),
		Entry("space separated", "0 4", 0, 4),
		Entry("empty", "", 0, 0),
		Entry("single field", "5", 0, 0),
	)
})

var _ = Describe("ParseCount", func() {
	It("parses trimmed integers", func() {
		Expect(gitx.ParseCount(" 12\n")).To(Equal(12))
		Expect(gitx.ParseCount("nope")).To(Equal(0))
	})
})
