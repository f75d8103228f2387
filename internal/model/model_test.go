package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/model"
)

var _ = Describe("DriftDescriptor", func() {
	DescribeTable("HasDrift",
		func(d model.DriftDescriptor, want bool) {
			Expect(d.HasDrift()).To(Equal(want))
		},
		Entry("clean", model.DriftDescriptor{Status: model.DriftOK}, false),
		Entry("dirty", model.DriftDescriptor{Status: model.DriftOK, LocalChanges: true}, true),
		Entry("ahead", model.DriftDescriptor{Status: model.DriftOK, CommitsAhead: 1}, true),
		Entry("behind", model.DriftDescriptor{Status: model.DriftOK, CommitsBehind: 2}, true),
		Entry("new", model.DriftDescriptor{Status: model.DriftNew}, true),
		Entry("orphan", model.DriftDescriptor{Status: model.DriftOrphan}, true),
		Entry("error", model.DriftDescriptor{Status: model.DriftError}, true),
	)
})

var _ = Describe("SyncReport", func() {
	It("lists only tolerated failures as warnings", func() {
		r := model.SyncReport{Steps: []model.StepResult{
			{Step: model.StepEnsureRepo, OK: true},
			{Step: model.StepPull, Error: "conflict"},
			{Step: model.StepStashPop, Error: "kept stash"},
			{Step: model.StepFetch, Skipped: true},
			{Step: model.StepPublish, Fatal: true, Error: "denied"},
		}}
		Expect(r.Warnings()).To(HaveLen(2))
		Expect(r.WarningText()).To(Equal("pull: conflict; stash_pop: kept stash"))
	})
})

var _ = Describe("ProjectSyncReport", func() {
	It("is OK only when every version synced", func() {
		r := model.ProjectSyncReport{Versions: make([]model.SyncReport, 2), Synced: 1}
		Expect(r.OK()).To(BeFalse())
		r.Synced = 2
		Expect(r.OK()).To(BeTrue())
	})
})
