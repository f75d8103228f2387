package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/config"
)

var _ = Describe("Config", func() {
	It("resolves config path from override directory", func() {
		path, err := config.ConfigPath(filepath.Join("C:", "tmp", "branchkeeper"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(HaveSuffix(filepath.Join("branchkeeper", "config.yaml")))
	})

	It("resolves config path from override file", func() {
		path, err := config.ConfigPath(filepath.Join("C:", "tmp", "custom.yml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(HaveSuffix(filepath.Join("tmp", "custom.yml")))
	})

	It("resolves config path from env", func() {
		Expect(os.Setenv("BRANCHKEEPER_CONFIG", filepath.Join("C:", "cfg", "config.yaml"))).To(Succeed())
		defer func() { _ = os.Unsetenv("BRANCHKEEPER_CONFIG") }()
		path, err := config.ConfigPath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(HaveSuffix(filepath.Join("cfg", "config.yaml")))
	})

	It("resolves runtime config from nearest parent dotfile", func() {
		dir := GinkgoT().TempDir()
		parentPath := filepath.Join(dir, ".branchkeeper.yaml")
		Expect(os.WriteFile(parentPath, []byte("root_branch: main\n"), 0o644)).To(Succeed())

		nested := filepath.Join(dir, "a", "b")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())

		path, err := config.ResolveConfigPath("", nested)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(parentPath))
	})

	It("falls back to global runtime config when local dotfile is absent", func() {
		dir := GinkgoT().TempDir()
		path, err := config.ResolveConfigPath("", dir)
		Expect(err).NotTo(HaveOccurred())

		globalPath, err := config.ConfigPath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(globalPath))
	})

	It("saves and loads config with defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "config.yaml")
		cfg := config.DefaultConfig()
		cfg.RootBranch = "trunk"
		cfg.Defaults.TimeoutSeconds = 30

		Expect(config.Save(&cfg, path)).To(Succeed())
		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.RootBranch).To(Equal("trunk"))
		Expect(loaded.Timeout()).To(Equal(30 * time.Second))
		Expect(loaded.Reserved()).To(ContainElements("main", "master", "HEAD", "trunk"))
		Expect(config.ResolveRegistryPath(path, loaded.RegistryPath)).To(Equal(filepath.Join(dir, "registry.yaml")))
	})

	It("fills blank fields from defaults on load", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte("root_branch: \"\"\ndefaults:\n  concurrency: 0\n"), 0o644)).To(Succeed())
		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.RootBranch).To(Equal("main"))
		Expect(loaded.Defaults.Concurrency).To(Equal(4))
		Expect(loaded.Timeout()).To(BeZero())
		Expect(loaded.CommitMessage).To(Equal("Sync"))
	})

	It("returns defaults when the file does not exist", func() {
		cfg, err := config.LoadOrDefault(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DefaultIgnore).To(ContainElement("backups/"))
		Expect(cfg.Exclude).To(BeEmpty())
	})
})
