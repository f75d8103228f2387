// SPDX-License-Identifier: MIT
package gitx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/gitx"
)

var _ = Describe("command wrappers", func() {
	var (
		ctx  context.Context
		mock *MockRunner
	)

	BeforeEach(func() {
		ctx = context.Background()
		mock = &MockRunner{Responses: map[string]MockResponse{}}
	})

	It("matches remote branches exactly", func() {
		mock.Responses["/p/1.2:ls-remote --heads https://h/r.git 1.2"] = MockResponse{Output: "a\trefs/heads/1.20\nb\trefs/heads/x/1.2\n"}
		ok, err := gitx.RemoteBranchExists(ctx, mock, "/p/1.2", "https://h/r.git", "1.2")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		mock.Responses["/p/1.2:ls-remote --heads https://h/r.git 1.2"] = MockResponse{Output: "a\trefs/heads/1.2\n"}
		ok, err = gitx.RemoteBranchExists(ctx, mock, "/p/1.2", "https://h/r.git", "1.2")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("adds origin when it is missing", func() {
		mock.Responses["/p:remote get-url origin"] = MockResponse{Err: errors.New("exit status 2"), Stderr: "error: No such remote 'origin'"}
		mock.Responses["/p:remote add origin https://h/r.git"] = MockResponse{}
		Expect(gitx.EnsureRemote(ctx, mock, "/p", "origin", "https://h/r.git")).To(Succeed())
		Expect(mock.Calls).To(ContainElement("/p:remote add origin https://h/r.git"))
	})

	It("repoints origin when it exists", func() {
		mock.Responses["/p:remote get-url origin"] = MockResponse{Output: "https://old/r.git\n"}
		mock.Responses["/p:remote set-url origin https://h/r.git"] = MockResponse{}
		Expect(gitx.EnsureRemote(ctx, mock, "/p", "origin", "https://h/r.git")).To(Succeed())
		Expect(mock.Calls).To(ContainElement("/p:remote set-url origin https://h/r.git"))
	})

	It("counts zero commits without HEAD", func() {
		mock.Responses["/p:rev-parse --verify --quiet HEAD"] = MockResponse{Err: errors.New("exit status 1")}
		n, err := gitx.CommitCount(ctx, mock, "/p")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("counts commits from HEAD", func() {
		mock.Responses["/p:rev-parse --verify --quiet HEAD"] = MockResponse{Output: "abc\n"}
		mock.Responses["/p:rev-list --count HEAD"] = MockResponse{Output: "7\n"}
		n, err := gitx.CommitCount(ctx, mock, "/p")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(7))
	})

	It("reports when stash had nothing to save", func() {
		mock.Responses["/p:stash push -u -m sync"] = MockResponse{Output: "No local changes to save\n"}
		created, err := gitx.StashPush(ctx, mock, "/p", "sync")
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())
	})

	It("builds push arguments with and without force", func() {
		mock.Responses["/p:push https://t@h/r.git HEAD:refs/heads/1.20"] = MockResponse{Stderr: "Everything up-to-date\n"}
		res, err := gitx.PushHead(ctx, mock, "/p", "https://t@h/r.git", "1.20", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(gitx.IsUpToDate(res)).To(BeTrue())

		mock.Responses["/p:push --force https://t@h/r.git HEAD:refs/heads/1.20"] = MockResponse{}
		_, err = gitx.PushHead(ctx, mock, "/p", "https://t@h/r.git", "1.20", true)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rebases onto the tracking ref without a remote url", func() {
		upstream := gitx.TrackingRef("origin", "1.20")
		Expect(upstream).To(Equal("refs/remotes/origin/1.20"))
		mock.Responses["/p:rebase refs/remotes/origin/1.20"] = MockResponse{}
		Expect(gitx.Rebase(ctx, mock, "/p", upstream)).To(Succeed())
		Expect(mock.Calls).To(Equal([]string{"/p:rebase refs/remotes/origin/1.20"}))
	})

	It("adopts a fetched history into an empty branch", func() {
		mock.Responses["/p:update-ref HEAD refs/remotes/origin/1.20"] = MockResponse{}
		mock.Responses["/p:reset -q"] = MockResponse{}
		Expect(gitx.AdoptHistory(ctx, mock, "/p", "refs/remotes/origin/1.20")).To(Succeed())
		Expect(mock.Calls).To(Equal([]string{"/p:update-ref HEAD refs/remotes/origin/1.20", "/p:reset -q"}))
	})

	It("stops adopting when the ref cannot be set", func() {
		mock.Responses["/p:update-ref HEAD refs/remotes/origin/1.20"] = MockResponse{Err: errors.New("exit status 128")}
		Expect(gitx.AdoptHistory(ctx, mock, "/p", "refs/remotes/origin/1.20")).NotTo(Succeed())
		Expect(mock.Calls).To(HaveLen(1))
	})

	It("detects dirty trees", func() {
		mock.Responses["/p:status --porcelain"] = MockResponse{Output: "?? new.txt\n"}
		dirty, err := gitx.IsDirty(ctx, mock, "/p")
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeTrue())
	})

	It("detects repositories and rebases on disk", func() {
		dir := GinkgoT().TempDir()
		Expect(gitx.HasRepo(dir)).To(BeFalse())
		Expect(os.MkdirAll(filepath.Join(dir, ".git", "rebase-merge"), 0o755)).To(Succeed())
		Expect(gitx.HasRepo(dir)).To(BeTrue())
		Expect(gitx.RebaseInProgress(dir)).To(BeTrue())
	})
})
