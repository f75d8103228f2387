package registry_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/registry"
)

var _ = Describe("Registry", func() {
	It("saves and loads registry", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "registry.yaml")
		reg := &registry.Registry{
			Sources: []string{dir},
			Entries: []registry.Entry{
				{ProjectID: "github.com/acme/pack", Path: filepath.Join(dir, "pack"), LastSeen: time.Now(), Status: registry.StatusPresent},
			},
		}
		Expect(registry.Save(reg, path)).To(Succeed())
		loaded, err := registry.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Entries).To(HaveLen(1))
		Expect(loaded.Sources).To(Equal([]string{dir}))
		Expect(loaded.UpdatedAt).NotTo(BeZero())
	})

	It("returns an empty registry when the file is absent", func() {
		reg, err := registry.LoadOrEmpty(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Entries).To(BeEmpty())
	})

	It("adds and removes sources once", func() {
		reg := &registry.Registry{}
		Expect(reg.AddSource("/src/a/")).To(BeTrue())
		Expect(reg.AddSource("/src/a")).To(BeFalse())
		Expect(reg.RemoveSource("/src/b")).To(BeFalse())
		Expect(reg.RemoveSource("/src/a")).To(BeTrue())
		Expect(reg.Sources).To(BeEmpty())
	})

	It("upserts entries by path and keeps sync history", func() {
		reg := &registry.Registry{}
		reg.RecordSync("/p", model.SyncResult{OK: true, At: time.Now(), Synced: 2})
		reg.Upsert(registry.Entry{ProjectID: "github.com/acme/pack", Path: "/p", RemoteURL: "https://github.com/acme/pack.git"})
		Expect(reg.Entries).To(HaveLen(1))
		Expect(reg.Entries[0].RemoteURL).To(Equal("https://github.com/acme/pack.git"))
		Expect(reg.Entries[0].LastSync).NotTo(BeNil())
		Expect(reg.Entries[0].LastSync.Synced).To(Equal(2))
	})

	It("defaults the project ID to the path", func() {
		reg := &registry.Registry{}
		reg.Upsert(registry.Entry{Path: "/p"})
		Expect(reg.FindByPath("/p").ProjectID).To(Equal("/p"))
		Expect(reg.FindByPath("/p").Status).To(Equal(registry.StatusPresent))
	})

	It("validates paths and marks missing", func() {
		dir := GinkgoT().TempDir()
		existing := filepath.Join(dir, "exists")
		Expect(os.MkdirAll(existing, 0o755)).To(Succeed())
		reg := &registry.Registry{Entries: []registry.Entry{
			{Path: existing},
			{Path: filepath.Join(dir, "missing")},
		}}
		Expect(reg.ValidatePaths()).To(Succeed())
		Expect(reg.Entries[0].Status).To(Equal(registry.StatusPresent))
		Expect(reg.Entries[1].Status).To(Equal(registry.StatusMissing))
	})

	It("prunes stale missing entries", func() {
		reg := &registry.Registry{Entries: []registry.Entry{
			{Path: "/old", Status: registry.StatusMissing, LastSeen: time.Now().Add(-48 * time.Hour)},
			{Path: "/new", Status: registry.StatusMissing, LastSeen: time.Now()},
		}}
		Expect(reg.PruneStale(24 * time.Hour)).To(Equal(1))
		Expect(reg.Entries).To(HaveLen(1))
		Expect(reg.Entries[0].Path).To(Equal("/new"))
	})
})
